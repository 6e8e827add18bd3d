package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/immigration-docs/internal/common"
)

// Dialect selects placeholder style, DDL and row locking.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a sqlx handle over either a pgx pool or modernc sqlite.
type DB struct {
	*sqlx.DB
	dialect Dialect
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// Open creates a pgx pool and wraps it in sqlx.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "dialect", Postgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "immigration-docs"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect: %w", err)
	}

	logger.Info("successfully connected to database")
	return &DB{DB: sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"), dialect: Postgres, pool: pool, logger: logger}, nil
}

// OpenSQLite opens a sqlite database file, or a private in-memory database
// when path is "" or ":memory:".
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = ":memory:"
	}
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: in-memory databases are per connection and sqlite has a single writer
	sqldb.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := sqldb.ExecContext(ctx, pragma); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}
	logger.Info("opened sqlite database", "path", path)
	// sqlx picks the bind style from the name; modernc registers as "sqlite"
	return &DB{DB: sqlx.NewDb(sqldb, "sqlite3"), dialect: SQLite, logger: logger}, nil
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Close closes the database connections gracefully
func (db *DB) Close() error {
	db.logger.Info("closing database connections")
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	if err != nil {
		db.logger.Error("failed to close database", "error", err)
		return err
	}
	db.logger.Info("database connections closed")
	return nil
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	db.logger.Debug("pinging database")
	if err := db.PingContext(ctx); err != nil {
		return common.NewAppError("DB_UNAVAILABLE", "database ping failed", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return nil
}

// conn binds a sqlx handle (DB or Tx) to a dialect; every repository runs
// through one. Queries are written with "?" and rebound per driver.
type conn struct {
	x       sqlx.ExtContext
	dialect Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.x.ExecContext(ctx, c.x.Rebind(query), args...)
}

func (c conn) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, c.x, dest, c.x.Rebind(query), args...)
}

func (c conn) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, c.x, dest, c.x.Rebind(query), args...)
}

func (c conn) namedExec(ctx context.Context, query string, arg any) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, c.x, query, arg)
}
