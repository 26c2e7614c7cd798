package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"arefa/internal/platform/config"
	"arefa/migrations"
)

// Dialect names the SQL flavour of a pool.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Pool wraps a *sql.DB with health checking capabilities.
type Pool struct {
	db      *sql.DB
	dialect Dialect
}

// ParseURL maps DATABASE_URL to a driver and DSN:
//
//	postgres://… or postgresql://…  → pgx
//	sqlite://path/to/file.db         → modernc sqlite
func ParseURL(url string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Postgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite url without a path: %q", url)
		}
		return SQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

func driverName(d Dialect) string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// New opens and pings the database named by cfg.URL.
// Returns nil if the URL is empty.
func New(cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	dialect, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == SQLite {
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{db: db, dialect: dialect}, nil
}

// sqliteDSN turns on foreign keys and WAL for file databases.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// DB returns the underlying *sql.DB for query operations.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Dialect reports the SQL flavour.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Migrate applies the embedded schema for the pool's dialect.
func (p *Pool) Migrate(ctx context.Context) error {
	if err := migrations.Apply(ctx, p.db, string(p.dialect)); err != nil {
		return fmt.Errorf("migrate %s: %w", p.dialect, err)
	}
	return nil
}

// Health checks if the database is reachable.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Stats returns database connection pool statistics.
func (p *Pool) Stats() sql.DBStats {
	if p == nil || p.db == nil {
		return sql.DBStats{}
	}
	return p.db.Stats()
}
