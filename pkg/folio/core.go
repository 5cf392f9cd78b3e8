package folio

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options controls Core initialization.
type Options struct {
	// Driver selects the storage backend; empty means sqlite.
	Driver string
	// DBPath is the sqlite database file.
	DBPath string
	// DSN is the postgres connection string.
	DSN    string
	Logger *slog.Logger
	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// Core provides access to portfolio business logic and storage.
type Core struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
	cache  *summaryCache
	locks  *keyedMutex
	now    func() time.Time
	dbPath string
}

// Open initializes a sqlite-backed Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		db        *sql.DB
		cleanPath string
		err       error
	)
	switch driver {
	case DriverSQLite:
		if opts.DBPath == "" {
			return nil, errors.New("db path is required")
		}
		cleanPath = filepath.Clean(opts.DBPath)
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		db, err = sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// SQLite performs best with a single writer.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, errors.New("postgres dsn is required")
		}
		db, err = sql.Open("postgres", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping db: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	c := &Core{
		db:     db,
		driver: driver,
		logger: logger,
		cache:  newSummaryCache(),
		locks:  newKeyedMutex(),
		now:    now,
		dbPath: cleanPath,
	}
	if err := c.initDatabase(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	logger.Info("storage ready", "driver", driver, "path", cleanPath)
	return c, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying sqlite database path, empty for postgres.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Driver returns the active storage driver name.
func (c *Core) Driver() string {
	return c.driver
}

// Ping checks storage availability.
func (c *Core) Ping() error {
	return c.db.Ping()
}

func (c *Core) timestamp() time.Time {
	return c.now().UTC()
}
