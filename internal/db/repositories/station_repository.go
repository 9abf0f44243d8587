package repositories

import (
	"context"

	"dwdcdc/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StationRepo stores the station list
type StationRepo struct {
	db *gormlib.DB
}

func NewStationRepo(db *gormlib.DB) *StationRepo {
	return &StationRepo{db: db}
}

// UpsertAll overwrites stations by primary key in one transaction
// ON CONFLICT (station) DO UPDATE SET <all columns>
func (r *StationRepo) UpsertAll(ctx context.Context, stations []gorm.Station) (int64, error) {
	if len(stations) == 0 {
		return 0, nil
	}

	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		res := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "station"}},
				UpdateAll: true,
			}).
			CreateInBatches(&stations, 200)
		n = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, storeErr("upsert", gorm.Station{}.TableName(), err)
	}
	return n, nil
}

// Get returns a station by id, nil if unknown
func (r *StationRepo) Get(ctx context.Context, id int) (*gorm.Station, error) {
	var s gorm.Station
	err := r.db.WithContext(ctx).Where("station = ?", id).First(&s).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, storeErr("get", s.TableName(), err)
	}
	return &s, nil
}

// Count returns the number of stored stations
func (r *StationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&gorm.Station{}).Count(&n).Error; err != nil {
		return 0, storeErr("count", gorm.Station{}.TableName(), err)
	}
	return n, nil
}
