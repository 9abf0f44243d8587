package db

import (
	"context"
	"fmt"
	"strings"

	"dwdcdc/internal/dataset"
	"dwdcdc/internal/models/gorm"
)

// Bootstrap creates the shared tables and one reading table per dataset if absent
func (s *Store) Bootstrap(ctx context.Context, descs ...dataset.Descriptor) error {
	if err := s.Gorm.WithContext(ctx).AutoMigrate(&gorm.Station{}, &gorm.Bookmark{}, &gorm.SyncRun{}); err != nil {
		return fmt.Errorf("migrate shared tables: %w", err)
	}

	for _, d := range descs {
		if _, err := s.SQLX.ExecContext(ctx, ReadingTableDDL(s.Driver, d)); err != nil {
			return fmt.Errorf("create %s: %w", d.Table, err)
		}
	}
	return nil
}

// ReadingTableDDL renders CREATE TABLE IF NOT EXISTS for the reading table of d
func ReadingTableDDL(driver string, d dataset.Descriptor) string {
	floatType := "REAL"
	if driver == DriverPostgres {
		floatType = "DOUBLE PRECISION"
	}

	cols := []string{
		"station INTEGER NOT NULL",
		"dwdts TEXT NOT NULL",
		"year INTEGER NOT NULL",
		"month INTEGER NOT NULL",
		"day INTEGER NOT NULL",
	}
	if d.Hourly() {
		cols = append(cols, "hour INTEGER NOT NULL")
	}

	for _, c := range d.Columns {
		var typ string
		switch c.Kind {
		case dataset.KindInt:
			typ = "INTEGER"
		case dataset.KindFloat:
			typ = floatType
		default:
			typ = "TEXT"
		}
		def := quoteIdent(c.Name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	cols = append(cols, "PRIMARY KEY (station, dwdts)")

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoteIdent(d.Table), strings.Join(cols, ",\n\t"))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
