// Package sqlstore implements the repository interfaces on top of
// database/sql through sqlx. One implementation serves SQLite
// (modernc.org/sqlite), MySQL (go-sql-driver/mysql) and Postgres (pgx):
// queries are written with ? placeholders and rebound per driver.
//
// CONNECTION POOL:
// *DB owns the pool and is injected into the services. It is never a package
// global. SQLite pools are capped at one connection so an in-memory database
// stays a single database and writes serialise.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DB is the record store accessor.
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects and pings without touching the schema.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*DB, error) {
	dsn, err := dialect.normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s database: %w", dialect, err)
	}

	return newDB(conn, dialect, logger), nil
}

// New opens the database and applies all pending migrations.
//
//	db, err := sqlstore.New(ctx, sqlstore.SQLite, "data/devlog.db", logger)
//	if err != nil { ... }
//	defer db.Close()
func New(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*DB, error) {
	db, err := Open(ctx, dialect, dsn, logger)
	if err != nil {
		return nil, err
	}

	if err := db.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newDB(conn *sqlx.DB, dialect Dialect, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{conn: conn, dialect: dialect, logger: logger}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping backs the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// now is the server-assigned timestamp. Microsecond precision matches the
// MySQL and Postgres column types, so a value reads back unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// insert runs an INSERT inside tx and returns the new row id.
func (db *DB) insert(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int64, error) {
	if db.dialect.returningID() {
		var id int64
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// rollback is deferred after every BeginTxx. Once the transaction has been
// committed it is a no-op.
func (db *DB) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.Error("rolling back transaction", slog.String("error", err.Error()))
	}
}
