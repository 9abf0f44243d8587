package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dwdcdc/internal/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store bundles the GORM handle and the sqlx handle. Both share one pool.
type Store struct {
	Driver string
	Gorm   *gorm.DB
	SQLX   *sqlx.DB
}

// Open connects to the configured database. For sqlite, dsn is a file path
// or ":memory:".
func Open(driver, dsn string) (*Store, error) {
	var (
		sx  *sqlx.DB
		err error
	)

	switch driver {
	case DriverSQLite:
		sx, err = sqlx.Connect("sqlite3", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
		}
		// one writer; also keeps ":memory:" on a single database
		sx.SetMaxOpenConns(1)
	case DriverPostgres:
		sx, err = connectWithRetry("postgres", dsn, 10, 500*time.Millisecond)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	gcfg := &gorm.Config{Logger: newGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags))}

	var gdb *gorm.DB
	if driver == DriverSQLite {
		gdb, err = gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite3", Conn: sx.DB}), gcfg)
	} else {
		gdb, err = gorm.Open(postgres.New(postgres.Config{Conn: sx.DB}), gcfg)
	}
	if err != nil {
		sx.Close()
		return nil, fmt.Errorf("failed to open gorm on %s: %w", driver, err)
	}

	logging.Info("Connected to database", "driver", driver)
	return &Store{Driver: driver, Gorm: gdb, SQLX: sx}, nil
}

// newGormLogger reports slow queries and failures. A missing row is an
// expected lookup result and is not logged.
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Close releases the shared pool
func (s *Store) Close() error {
	return s.SQLX.Close()
}

func connectWithRetry(driver, dsn string, tries int, wait time.Duration) (*sqlx.DB, error) {
	var err error
	for i := 0; i < tries; i++ {
		var sx *sqlx.DB
		sx, err = sqlx.Connect(driver, dsn)
		if err == nil {
			return sx, nil
		}
		time.Sleep(wait)
	}
	return nil, err
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_busy_timeout=5000"
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}
