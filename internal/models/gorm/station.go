package gorm

import "time"

// Station is one weather station as listed by the DWD
type Station struct {
	Station     int       `gorm:"column:station;primaryKey;autoIncrement:false"`
	DateFrom    string    `gorm:"column:dwddate_from;type:text"`
	DateTo      string    `gorm:"column:dwddate_to;type:text"`
	IsoDateFrom string    `gorm:"column:isodate_from;type:text"`
	IsoDateTo   string    `gorm:"column:isodate_to;type:text"`
	Elevation   int       `gorm:"column:elevation"`
	Latitude    float64   `gorm:"column:latitude"`
	Longitude   float64   `gorm:"column:longitude"`
	Name        string    `gorm:"column:name;type:text"`
	State       string    `gorm:"column:state;type:text"`
	StateShort  string    `gorm:"column:state_short;type:text"`
	Description string    `gorm:"column:description;type:text"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Station) TableName() string {
	return "stations"
}
