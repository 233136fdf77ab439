package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds everything needed to open a connection to the
// relational store. It is normally populated from the process environment
// via NewDatabaseConfiguration; production configuration parsing beyond
// that is out of scope.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads PGHOST/PGPORT/PGDATABASE/PGUSER/PGPASSWORD/
// PGSSLMODE from the environment, defaulting sslmode to "disable" and schema
// to "public" when unset.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	host := os.Getenv("PGHOST")
	if host == "" {
		return nil, fmt.Errorf("database configuration: PGHOST is required")
	}
	port := os.Getenv("PGPORT")
	if port == "" {
		return nil, fmt.Errorf("database configuration: PGPORT is required")
	}
	database := os.Getenv("PGDATABASE")
	if database == "" {
		return nil, fmt.Errorf("database configuration: PGDATABASE is required")
	}
	username := os.Getenv("PGUSER")
	if username == "" {
		return nil, fmt.Errorf("database configuration: PGUSER is required")
	}

	sslMode := os.Getenv("PGSSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	schema := os.Getenv("PGSCHEMA")
	if schema == "" {
		schema = "public"
	}

	return &DatabaseConfiguration{
		Host:     host,
		Port:     port,
		Database: database,
		Username: username,
		Password: os.Getenv("PGPASSWORD"),
		Schema:   schema,
		SSLMode:  sslMode,
	}, nil
}

// ConnectionString renders config as a lib/pq key=value connection string.
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode, c.Schema,
	)
}

// Database bundles an open *sql.DB with its logger. It is the shared,
// process-wide mutable resource every repository is a pure view over.
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
	name     string
}

// NewDatabase opens a pooled connection using config and wraps it.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", name, err)
	}

	return &Database{Instance: db, Logger: logger, name: name}, nil
}

// NewTestDatabase is the test-only constructor used by package test harnesses;
// it panics on a misconfigured connection string since tests have no
// meaningful recovery path.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
	}))

	db, err := NewDatabase("test", config, logger)
	if err != nil {
		panic(err)
	}
	return db
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
