package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dwdcdc/internal/config"
	"dwdcdc/internal/constants"
	"dwdcdc/internal/jobs"
)

func TestParseFlags_Mode(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-recent"}, constants.SyncModeRecent},
		{[]string{"-historical", "-station", "722"}, constants.SyncModeHistorical},
		{[]string{"-stations", "-dataset", "kl"}, constants.SyncModeStations},
		{[]string{}, ""},
		{[]string{"-recent", "-historical"}, ""},
	}

	for _, tt := range tests {
		o, err := parseFlags(tt.args)
		if err != nil {
			t.Fatalf("Expected no error for %v, got %v", tt.args, err)
		}
		if got := o.mode(); got != tt.want {
			t.Errorf("%v: expected mode %q, got %q", tt.args, tt.want, got)
		}
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	if _, err := parseFlags([]string{"-bogus"}); err == nil {
		t.Error("Expected an error for an unknown flag")
	}
}

func TestBuildRequest_RejectsMisconfiguration(t *testing.T) {
	cfg := &config.AppConfig{Stations: []int{722}}

	tests := []struct {
		name string
		args []string
		cfg  *config.AppConfig
		code string
	}{
		{"two modes", []string{"-stations", "-recent"}, cfg, constants.ErrCodeInvalidMode},
		{"no mode", []string{}, cfg, constants.ErrCodeInvalidMode},
		{"unknown dataset", []string{"-recent", "-dataset", "sunshine"}, cfg, constants.ErrCodeUnknownDataset},
		{"bad station list", []string{"-recent", "-station", "abc"}, cfg, constants.ErrCodeInvalidStationList},
		{"empty selection", []string{"-historical"}, &config.AppConfig{}, constants.ErrCodeEmptyStationSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			_, err = buildRequest(opts, tt.cfg)
			var ce *jobs.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if ce.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, ce.Code)
			}
		})
	}
}

func TestBuildRequest_StationFlagOverridesConfig(t *testing.T) {
	opts, err := parseFlags([]string{"-recent", "-station", "5792(Zugspitze)"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	req, err := buildRequest(opts, &config.AppConfig{Stations: []int{722}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if req.Mode != constants.SyncModeRecent || len(req.Stations) != 1 || req.Stations[0] != 5792 {
		t.Errorf("Unexpected request %+v", req)
	}
}

func TestRun_MisconfiguredDoesNotOpenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwdcdc.sqlite")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("STATIONS", "722")
	t.Setenv("DWD_CONFIG_FILE", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("S3_BUCKET_NAME", "")

	if code := run([]string{"-stations", "-recent"}); code != exitMisconfigured {
		t.Errorf("Expected exit code %d, got %d", exitMisconfigured, code)
	}
	if code := run([]string{"-recent", "-dataset", "sunshine"}); code != exitMisconfigured {
		t.Errorf("Expected exit code %d, got %d", exitMisconfigured, code)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no database file at %s, got %v", path, err)
	}
}
