package gorm

import "time"

// Bookmark is the newest timestamp ingested from the recent window of a
// dataset for one station
type Bookmark struct {
	Dataset   string    `gorm:"column:dataset;primaryKey;type:varchar(32)"`
	Station   int       `gorm:"column:station;primaryKey;autoIncrement:false"`
	Dwdts     string    `gorm:"column:dwdts;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Bookmark) TableName() string {
	return "bookmarks"
}
