package db

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"gorm.io/gorm"

	"dwdcdc/internal/dataset"
	gormModels "dwdcdc/internal/models/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBootstrap_IsIdempotentAndVerifies(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.Bootstrap(ctx, dataset.AirTemperatureHourly, dataset.ClimateDaily); err != nil {
			t.Fatalf("Bootstrap #%d: %v", i+1, err)
		}
	}

	for _, d := range []dataset.Descriptor{dataset.AirTemperatureHourly, dataset.ClimateDaily} {
		if err := store.VerifyReadingsTable(ctx, d); err != nil {
			t.Errorf("Expected %s to verify, got %v", d.Table, err)
		}
	}
}

func TestVerifyReadingsTable_Rejects(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	d := dataset.AirTemperatureHourly

	if err := store.VerifyReadingsTable(ctx, d); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected missing table error, got %v", err)
	}

	_, err := store.SQLX.ExecContext(ctx, `CREATE TABLE readings_at2h (
		station INTEGER NOT NULL, dwdts TEXT NOT NULL, year INTEGER, month INTEGER, day INTEGER, hour INTEGER,
		qn INTEGER, temp REAL, humid REAL, PRIMARY KEY (station, dwdts, qn))`)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.VerifyReadingsTable(ctx, d); err == nil || !strings.Contains(err.Error(), "primary key") {
		t.Errorf("Expected primary key error, got %v", err)
	}
}

func TestVerifyReadingsTable_MissingColumn(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.SQLX.ExecContext(ctx, `CREATE TABLE readings_at2h (
		station INTEGER NOT NULL, dwdts TEXT NOT NULL, year INTEGER, month INTEGER, day INTEGER, hour INTEGER,
		qn INTEGER, temp REAL, PRIMARY KEY (station, dwdts))`)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.VerifyReadingsTable(ctx, dataset.AirTemperatureHourly); err == nil || !strings.Contains(err.Error(), "humid") {
		t.Errorf("Expected missing column error, got %v", err)
	}
}

func TestReadingTableDDL(t *testing.T) {
	ddl := ReadingTableDDL(DriverPostgres, dataset.AirTemperatureHourly)

	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "readings_at2h"`,
		"hour INTEGER NOT NULL",
		`"qn" INTEGER NOT NULL`,
		`"temp" DOUBLE PRECISION,`,
		"PRIMARY KEY (station, dwdts)",
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("Expected DDL to contain %q:\n%s", want, ddl)
		}
	}

	if daily := ReadingTableDDL(DriverSQLite, dataset.ClimateDaily); strings.Contains(daily, "hour") {
		t.Errorf("Daily table must not have an hour column:\n%s", daily)
	}
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	store := openTestStore(t)
	if err := store.Bootstrap(context.Background(), dataset.AirTemperatureHourly); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var buf bytes.Buffer
	gdb := store.Gorm.Session(&gorm.Session{Logger: newGormLogger(log.New(&buf, "", 0))})

	var st gormModels.Station
	err := gdb.Where("station = ?", 999).First(&st).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output for a missing row, got %q", buf.String())
	}

	if err := gdb.Exec("SELECT * FROM no_such_table").Error; err == nil {
		t.Fatal("Expected an error for a missing table")
	}
	if buf.Len() == 0 {
		t.Error("Expected a failing statement to be logged")
	}
}
