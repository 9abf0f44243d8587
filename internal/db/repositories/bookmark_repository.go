package repositories

import (
	"context"
	"time"

	"dwdcdc/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookmarkRepo persists the per-station high water mark of recent syncs
type BookmarkRepo struct {
	db *gormlib.DB
}

func NewBookmarkRepo(db *gormlib.DB) *BookmarkRepo {
	return &BookmarkRepo{db: db}
}

// Get returns the stored token, nil if the station was never synced
func (r *BookmarkRepo) Get(ctx context.Context, dataset string, station int) (*string, error) {
	var b gorm.Bookmark
	res := r.db.WithContext(ctx).
		Where("dataset = ? AND station = ?", dataset, station).
		Limit(1).
		Find(&b)
	if res.Error != nil {
		return nil, storeErr("get", b.TableName(), res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &b.Dwdts, nil
}

// Advance stores candidate if there is no bookmark yet or candidate is
// strictly greater than the stored one. It reports whether a write happened.
// ON CONFLICT (dataset, station) DO UPDATE ... WHERE bookmarks.dwdts < excluded.dwdts
func (r *BookmarkRepo) Advance(ctx context.Context, dataset string, station int, candidate string) (bool, error) {
	if candidate == "" {
		return false, nil
	}

	b := gorm.Bookmark{
		Dataset:   dataset,
		Station:   station,
		Dwdts:     candidate,
		UpdatedAt: time.Now(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "dataset"},
				{Name: "station"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"dwdts", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "bookmarks.dwdts < excluded.dwdts"},
			}},
		}).
		Create(&b)
	if res.Error != nil {
		return false, storeErr("advance", b.TableName(), res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List returns all bookmarks of a dataset ordered by station
func (r *BookmarkRepo) List(ctx context.Context, dataset string) ([]gorm.Bookmark, error) {
	var out []gorm.Bookmark
	err := r.db.WithContext(ctx).
		Where("dataset = ?", dataset).
		Order("station").
		Find(&out).Error
	if err != nil {
		return nil, storeErr("list", gorm.Bookmark{}.TableName(), err)
	}
	return out, nil
}
