package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
)

const DefaultBaseURL = "https://opendata.dwd.de/climate_environment/CDC/observations_germany/climate"

type DBConfig struct {
	Driver     string // sqlite or postgres
	SQLitePath string
	DSN        string
}

type DWDConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retries           int
	RetryBackoff      time.Duration
	ListingCacheTTL   time.Duration
	Pause             time.Duration // between two data files
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether the listing cache should live in Redis
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// S3Config configures the optional raw archive mirror
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	BucketName      string
	Prefix          string
	Region          string
}

type AppConfig struct {
	AppEnv string

	DB    DBConfig
	DWD   DWDConfig
	Redis RedisConfig
	S3    *S3Config

	// Station restriction; empty with AllStations false is a configuration error
	Stations    []int
	AllStations bool
	Datasets    []dataset.Descriptor

	PushgatewayURL string
	HTTPAddr       string
	JobsAPISecret  string
	RecentSyncAt   string
}

// Load reads configuration from .env, the environment and the optional YAML file.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		AppEnv: getenvDefault("APP_ENV", "development"),
		DB: DBConfig{
			Driver:     getenvDefault("DB_DRIVER", "sqlite"),
			SQLitePath: getenvDefault("SQLITE_PATH", "dwdcdc.sqlite"),
			DSN:        os.Getenv("DB_DSN"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getenvDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JobsAPISecret:  os.Getenv("JOBS_API_SECRET"),
		RecentSyncAt:   getenvDefault("RECENT_SYNC_AT", "10:30"),
	}

	if cfg.DB.Driver == "postgres" && cfg.DB.DSN == "" {
		cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("PG_USER"), os.Getenv("PG_PASSWORD"), os.Getenv("PG_HOST"),
			getenvDefault("PG_PORT", "5432"), os.Getenv("PG_DB"))
	}
	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("%s: DB_DRIVER %q", constants.ErrCodeConfigMalformed, cfg.DB.Driver)
	}

	var err error
	cfg.DWD, err = loadDWD()
	if err != nil {
		return nil, err
	}
	cfg.S3 = loadS3()

	if path := os.Getenv("DWD_CONFIG_FILE"); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Stations = fc.Stations
		cfg.AllStations = fc.AllStations
		cfg.Datasets = fc.Datasets
	}

	if s := os.Getenv("STATIONS"); s != "" {
		ids, err := dataset.ParseStationSelection(s)
		if err != nil {
			return nil, fmt.Errorf("invalid STATIONS: %w", err)
		}
		cfg.Stations = ids
	}

	return cfg, nil
}

func loadDWD() (DWDConfig, error) {
	d := DWDConfig{
		BaseURL:           strings.TrimRight(getenvDefault("DWD_BASE_URL", DefaultBaseURL), "/"),
		Retries:           getenvInt("DWD_RETRIES", 3),
		RequestsPerSecond: getenvFloat("DWD_REQUESTS_PER_SECOND", 2),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"DWD_HTTP_TIMEOUT", "60s", &d.Timeout},
		{"DWD_RETRY_BACKOFF", "3s", &d.RetryBackoff},
		{"LISTING_CACHE_TTL", "10m", &d.ListingCacheTTL},
		{"DWD_FILE_PAUSE", "2s", &d.Pause},
	}
	for _, dd := range durations {
		v, err := time.ParseDuration(getenvDefault(dd.key, dd.def))
		if err != nil {
			return d, fmt.Errorf("invalid %s: %w", dd.key, err)
		}
		*dd.dst = v
	}
	return d, nil
}

// loadS3 returns nil unless a bucket is configured
func loadS3() *S3Config {
	bucket := os.Getenv("S3_BUCKET_NAME")
	if bucket == "" {
		return nil
	}
	return &S3Config{
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		BucketName:      bucket,
		Prefix:          getenvDefault("S3_PREFIX", "dwd/"),
		Region:          getenvDefault("S3_REGION", "auto"),
	}
}

// Registry returns the built-in datasets plus those declared in the config file
func (c *AppConfig) Registry() (*dataset.Registry, error) {
	reg := dataset.NewRegistry()
	for _, d := range c.Datasets {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
