package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"libraryapi/db"
	"libraryapi/internal/book"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Supported backends.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Options selects and configures the book store backend.
type Options struct {
	Driver      string
	DSN         string
	SQLitePath  string
	Timeout     time.Duration
	AutoMigrate bool
}

// Open creates the book repository for opts.Driver.
//
// Supported backends:
//
//	"postgres" - pgx pool on DSN (default)
//	"sqlite"   - SQLite database at SQLitePath
//	"memory"   - in-memory (ephemeral, for testing)
//
// The returned close function releases the backend's connections.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (book.Repository, func(), error) {
	switch opts.Driver {
	case DriverPostgres, "":
		pool, err := openPG(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		if opts.AutoMigrate {
			if err := MigratePG(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("database migrations applied")
		}
		logger.Info("database connection OK", "driver", DriverPostgres, "dsn", RedactDSN(opts.DSN))
		return NewBookPG(pool, opts.Timeout), pool.Close, nil
	case DriverSQLite:
		s, err := OpenBookSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", opts.SQLitePath, err)
		}
		logger.Info("database connection OK", "driver", DriverSQLite, "path", opts.SQLitePath)
		return s, func() { _ = s.Close() }, nil
	case DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return NewBookMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q (supported: postgres, sqlite, memory)", opts.Driver)
	}
}

func openPG(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", RedactDSN(dsn), err)
	}
	return pool, nil
}

// MigratePG applies the embedded goose migrations to the pool's database.
func MigratePG(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, sqlDB, db.MigrationsDir)
}

// RedactDSN hides the credentials part of a connection URL.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
