package gorm

import "time"

// SyncRun records the summary of one sync invocation
type SyncRun struct {
	ID                string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	Dataset           string     `gorm:"column:dataset;type:varchar(32);not null;index"`
	Mode              string     `gorm:"column:mode;type:varchar(16);not null"`
	Status            string     `gorm:"column:status;type:varchar(20);not null"`
	StationsAttempted int        `gorm:"column:stations_attempted"`
	StationsFailed    int        `gorm:"column:stations_failed"`
	FilesFetched      int        `gorm:"column:files_fetched"`
	RowsWritten       int64      `gorm:"column:rows_written"`
	Errors            string     `gorm:"column:errors;type:text"` // JSON encoded per-station errors
	StartedAt         time.Time  `gorm:"column:started_at;not null"`
	FinishedAt        *time.Time `gorm:"column:finished_at"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}
