package repositories

import (
	"context"
	"database/sql"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dwdcdc/internal/dataset"
)

// maxBindVars keeps one INSERT below the bind variable limits of sqlite and postgres
const maxBindVars = 30000

// ReadingRepo writes and inspects the per-dataset reading tables
type ReadingRepo struct {
	db *gormlib.DB
}

func NewReadingRepo(db *gormlib.DB) *ReadingRepo {
	return &ReadingRepo{db: db}
}

// InsertIgnore inserts rows and leaves rows with an existing (station, dwdts)
// untouched. It returns the number of rows actually inserted.
// ON CONFLICT (station, dwdts) DO NOTHING
func (r *ReadingRepo) InsertIgnore(ctx context.Context, d dataset.Descriptor, rows []dataset.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	names := d.ColumnNames()
	batch := maxBindVars / len(names)
	if batch > 500 {
		batch = 500
	}

	var inserted int64
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]map[string]interface{}, 0, end-start)
		for _, row := range rows[start:end] {
			m := make(map[string]interface{}, len(names))
			for i, n := range names {
				m[n] = row[i]
			}
			values = append(values, m)
		}

		res := r.db.WithContext(ctx).
			Table(d.Table).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: dataset.ColStation},
					{Name: dataset.ColTimestamp},
				},
				DoNothing: true,
			}).
			Create(values)
		if res.Error != nil {
			return inserted, storeErr("insert", d.Table, res.Error)
		}
		inserted += res.RowsAffected
	}
	return inserted, nil
}

// MaxTimestamp returns the newest dwdts stored for station, "" if none
func (r *ReadingRepo) MaxTimestamp(ctx context.Context, d dataset.Descriptor, station int) (string, error) {
	var ts sql.NullString
	err := r.db.WithContext(ctx).
		Table(d.Table).
		Select("MAX(dwdts)").
		Where("station = ?", station).
		Row().
		Scan(&ts)
	if err != nil {
		return "", storeErr("max", d.Table, err)
	}
	return ts.String, nil
}

// Count returns the number of rows stored for station
func (r *ReadingRepo) Count(ctx context.Context, d dataset.Descriptor, station int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table(d.Table).
		Where("station = ?", station).
		Count(&n).Error
	if err != nil {
		return 0, storeErr("count", d.Table, err)
	}
	return n, nil
}

// Get returns one reading keyed by column name, nil if absent
func (r *ReadingRepo) Get(ctx context.Context, d dataset.Descriptor, station int, ts string) (map[string]interface{}, error) {
	var out []map[string]interface{}
	err := r.db.WithContext(ctx).
		Table(d.Table).
		Where("station = ? AND dwdts = ?", station, ts).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, storeErr("get", d.Table, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
