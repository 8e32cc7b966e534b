// Package database provides the shared persistence plumbing: the GORM
// database handle, a generic repository, query option translation and the
// vector column codec.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database is the process-wide handle to the relational store. Sessions are
// short-lived and scoped to one request or one batch.
type Database interface {
	// Session returns a GORM session bound to ctx.
	Session(ctx context.Context) *gorm.DB

	// GORM returns the underlying GORM handle for migrations and raw SQL.
	GORM() *gorm.DB

	// IsPostgres reports whether the postgres dialect is in use.
	IsPostgres() bool

	// IsSQLite reports whether the sqlite dialect is in use.
	IsSQLite() bool

	// ConfigurePool sets connection pool limits.
	ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error

	// Close releases the underlying connection pool.
	Close() error
}

type gormDatabase struct {
	gorm *gorm.DB
}

// NewDatabase opens a database from a URL. Supported schemes are
// sqlite:///path (or sqlite:///:memory:) and postgres:// / postgresql://.
func NewDatabase(ctx context.Context, url string) (Database, error) {
	dialector, err := parseDialector(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: slogGormLogger{},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &gormDatabase{gorm: db}, nil
}

// parseDialector maps a database URL to a GORM dialector.
func parseDialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(sqlitePath(url)), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	default:
		return nil, errors.New("unsupported database driver")
	}
}

// sqlitePath extracts the filesystem path (or :memory:) from a sqlite URL.
// "sqlite:///:memory:" yields ":memory:" and "sqlite:////data/gim.db"
// yields the absolute path "/data/gim.db".
func sqlitePath(url string) string {
	path := strings.TrimPrefix(url, "sqlite://")
	path = strings.TrimPrefix(path, "/")
	if strings.HasPrefix(path, ":memory:") {
		return ":memory:"
	}
	return path
}

func (d *gormDatabase) Session(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

func (d *gormDatabase) GORM() *gorm.DB {
	return d.gorm
}

func (d *gormDatabase) IsPostgres() bool {
	return d.gorm.Dialector.Name() == "postgres"
}

func (d *gormDatabase) IsSQLite() bool {
	return d.gorm.Dialector.Name() == "sqlite"
}

func (d *gormDatabase) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)
	return nil
}

func (d *gormDatabase) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	return sqlDB.Close()
}
