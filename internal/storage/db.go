// Package storage persists built specification documents in SQLite or
// PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownDriver = errors.New("unknown database driver")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PoolConfig tunes the connection pool. Zero values keep database/sql
// defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to driver ("sqlite" or "postgres") and pings it.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	var name string
	switch driver {
	case DriverSQLite, "":
		name = "sqlite3"
	case DriverPostgres:
		name = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if name == "sqlite3" {
		// A second connection to ":memory:" would see an empty database.
		db.SetMaxOpenConns(1)
	} else if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, nil
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	db     *sql.DB
	driver string
	files  fs.FS
}

// NewMigrator creates a migrator for driver.
func NewMigrator(db *sql.DB, driver string) *Migrator {
	sub, _ := fs.Sub(migrationFiles, "migrations")
	return &Migrator{db: db, driver: driver, files: sub}
}

// Pending lists migrations not yet recorded in schema_migrations.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}
	all, err := m.listMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("list migration files: %w", err)
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	var pending []string
	for _, name := range all {
		if !applied[m.version(name)] {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// Up runs every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) error {
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	for _, name := range pending {
		if err := m.runMigration(ctx, name); err != nil {
			return fmt.Errorf("run migration %s: %w", name, err)
		}
	}
	return nil
}

func (m *Migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	var query string
	switch m.driver {
	case DriverSQLite, "":
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				version TEXT UNIQUE NOT NULL,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`
	default:
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id SERIAL PRIMARY KEY,
				version TEXT UNIQUE NOT NULL,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`
	}
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// listMigrationFiles returns one file per version, sorted. SQLite prefers
// the _sqlite.sql variant; PostgreSQL ignores it.
func (m *Migrator) listMigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		sqliteOnly := strings.HasSuffix(name, "_sqlite.sql")
		switch {
		case m.isSQLite() && sqliteOnly:
			byVersion[m.version(name)] = name
		case !sqliteOnly:
			if _, ok := byVersion[m.version(name)]; !ok || !m.isSQLite() {
				byVersion[m.version(name)] = name
			}
		}
	}

	names := make([]string, 0, len(byVersion))
	for _, name := range byVersion {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) runMigration(ctx context.Context, name string) error {
	body, err := fs.ReadFile(m.files, name)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version(name)); err != nil {
		return err
	}
	return tx.Commit()
}

// version strips the driver suffix: "0001_init_sqlite.sql" and
// "0001_init.sql" are both version "0001_init".
func (m *Migrator) version(name string) string {
	name = strings.TrimSuffix(name, ".sql")
	return strings.TrimSuffix(name, "_sqlite")
}

func (m *Migrator) isSQLite() bool {
	return m.driver == DriverSQLite || m.driver == ""
}
