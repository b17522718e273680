package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"dashboard-api/domain"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Storage provides access to the relational store. Queries number their
// placeholders in order of first appearance so the same SQL runs on both
// PostgreSQL and SQLite.
type Storage struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to the database identified by driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*Storage, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// In-memory databases exist per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(db, driver), nil
}

// New wraps an existing handle. The caller keeps ownership of db's lifetime
// through Close.
func New(db *sql.DB, driver string) *Storage {
	return &Storage{db: db, driver: driver, now: func() time.Time { return time.Now().UTC() }}
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
