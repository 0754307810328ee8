// Package db opens the PostgreSQL queue store and keeps its schema current.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds connection settings for the queue store.
type Config struct {
	DataSource   string
	Schema       string
	MaxOpenConns int
	MaxIdleConns int
}

// DB wraps the PostgreSQL connection pool.
type DB struct {
	*sql.DB
	schema string
}

// Open connects to PostgreSQL, sizes the pool, verifies liveness and runs
// pending migrations. The schema is created when absent and becomes the
// session search_path, so every query operates inside it.
func Open(c Config) (*DB, error) {
	dsn, err := withSearchPath(c.DataSource, c.Schema)
	if err != nil {
		return nil, fmt.Errorf("parse data source: %w", err)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	d := &DB{DB: sqlDB, schema: c.Schema}

	if c.Schema != "" && c.Schema != "public" {
		stmt := "CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(c.Schema)
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("create schema %s: %w", c.Schema, err)
		}
	}

	if err := d.Migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Schema returns the schema all queue tables live in.
func (d *DB) Schema() string {
	return d.schema
}

// Migrate applies pending migrations from the embedded set.
func (d *DB) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	drv, err := postgres.WithInstance(d.DB, &postgres.Config{SchemaName: d.schema})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SqlConn returns a go-zero sqlx.SqlConn over the pool, so the model layer
// gets circuit breaking and tracing on every query. Only infrastructure
// errors count against the breaker.
func (d *DB) SqlConn() sqlx.SqlConn {
	return sqlx.NewSqlConnFromDB(d.DB, sqlx.WithAcceptable(func(err error) bool {
		return err == nil || !IsConnErr(err)
	}))
}

// withSearchPath pins the session search_path to the configured schema.
// lib/pq forwards unknown URL parameters as server run-time settings.
func withSearchPath(dataSource, schema string) (string, error) {
	if schema == "" {
		return dataSource, nil
	}
	u, err := url.Parse(dataSource)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		// key=value DSN form; let the operator qualify it themselves.
		return dataSource, nil
	}
	q := u.Query()
	if q.Get("search_path") == "" {
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
