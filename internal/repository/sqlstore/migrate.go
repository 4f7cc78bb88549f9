package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/sakif/devlog/internal/repository/sqlstore/migrations"
)

// goose keeps its dialect, filesystem and logger in package state.
var gooseMu sync.Mutex

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), slog.String("component", "migrate"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "migrate"))
	os.Exit(1)
}

// withGoose configures goose for this database and runs fn with the
// dialect's migration directory.
func (db *DB) withGoose(fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: db.logger})
	if err := goose.SetDialect(db.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("sqlstore: setting goose dialect: %w", err)
	}

	return fn(string(db.dialect))
}

// MigrateUp applies every pending migration.
func (db *DB) MigrateUp(ctx context.Context) error {
	return db.withGoose(func(dir string) error {
		if err := goose.UpContext(ctx, db.conn.DB, dir); err != nil {
			return fmt.Errorf("sqlstore: running migrations: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	return db.withGoose(func(dir string) error {
		if err := goose.DownContext(ctx, db.conn.DB, dir); err != nil {
			return fmt.Errorf("sqlstore: rolling back migration: %w", err)
		}
		return nil
	})
}

// MigrationStatus logs the applied state of every migration.
func (db *DB) MigrationStatus(ctx context.Context) error {
	return db.withGoose(func(dir string) error {
		if err := goose.StatusContext(ctx, db.conn.DB, dir); err != nil {
			return fmt.Errorf("sqlstore: reading migration status: %w", err)
		}
		return nil
	})
}

// SchemaVersion returns the latest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	var version int64
	err := db.withGoose(func(string) error {
		v, err := goose.GetDBVersionContext(ctx, db.conn.DB)
		version = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("sqlstore: reading schema version: %w", err)
	}
	return version, nil
}
