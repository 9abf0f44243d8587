package repositories

import (
	"context"

	"dwdcdc/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncRunRepo handles sync history operations
type SyncRunRepo struct {
	db *gormlib.DB
}

func NewSyncRunRepo(db *gormlib.DB) *SyncRunRepo {
	return &SyncRunRepo{db: db}
}

// Save inserts or updates a run record
func (r *SyncRunRepo) Save(ctx context.Context, run *gorm.SyncRun) error {
	return storeErr("save", run.TableName(), r.db.WithContext(ctx).Save(run).Error)
}

// Last returns the most recently started run, optionally of one dataset.
// Returns nil if there is none.
func (r *SyncRunRepo) Last(ctx context.Context, dataset string) (*gorm.SyncRun, error) {
	var run gorm.SyncRun

	q := r.db.WithContext(ctx)
	if dataset != "" {
		q = q.Where("dataset = ?", dataset)
	}
	err := q.Order("started_at DESC").First(&run).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, storeErr("last", run.TableName(), err)
	}
	return &run, nil
}
