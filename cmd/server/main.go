// Package main is the devlog API server.
//
// main stays small: it loads configuration, builds the logger and the
// database handle, and hands them to internal/server. All request handling
// lives in the internal packages.
//
//	devlog-server               # same as "serve"
//	devlog-server serve
//	devlog-server migrate up|down|status
//	devlog-server version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/devlog/internal/config"
	"github.com/sakif/devlog/internal/logger"
	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/repository/sqlstore"
	"github.com/sakif/devlog/internal/server"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "devlog-server",
		Short:        "Personal knowledge base API: entries, snippets and exports",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		newMigrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "devlog-server", version)
			},
		},
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	steps := []struct {
		use, short string
		run        func(*sqlstore.DB, context.Context) error
	}{
		{"up", "Apply all pending migrations", (*sqlstore.DB).MigrateUp},
		{"down", "Roll back the latest migration", (*sqlstore.DB).MigrateDown},
		{"status", "Print applied and pending migrations", (*sqlstore.DB).MigrationStatus},
	}
	for _, step := range steps {
		cmd.AddCommand(&cobra.Command{
			Use:   step.use,
			Short: step.short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return migrate(c.Context(), step.run)
			},
		})
	}
	return cmd
}

// bootstrap loads configuration and the logger shared by every subcommand.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(log)
	return cfg, log, nil
}

// ensureDBDir creates the parent directory of a file-backed SQLite database.
func ensureDBDir(cfg *config.Config) error {
	if cfg.DBDriver != sqlstore.SQLite || cfg.DBPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

func serve(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if err := ensureDBDir(cfg); err != nil {
		return err
	}

	db, err := sqlstore.New(ctx, cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		log.Error("failed to open database", slog.String("driver", string(cfg.DBDriver)), slog.String("error", err.Error()))
		return err
	}
	defer db.Close()

	gen, err := metagen.NewGenerator(ctx, cfg.Metagen)
	if err != nil {
		log.Error("invalid metadata generation settings", slog.String("error", err.Error()))
		return err
	}

	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		JWTSecret:         cfg.JWTSecret,
		TokenTTL:          cfg.TokenTTL,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		MetagenTimeout:    cfg.MetagenTimeout,
	}, db, gen, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}
	defer srv.Close()

	log.Info("devlog starting", slog.String("version", version), slog.String("driver", string(cfg.DBDriver)))
	return srv.Start(ctx)
}

func migrate(ctx context.Context, run func(*sqlstore.DB, context.Context) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if err := ensureDBDir(cfg); err != nil {
		return err
	}

	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := run(db, ctx); err != nil {
		return err
	}

	v, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	log.Info("schema version", slog.Int64("version", v))
	return nil
}
