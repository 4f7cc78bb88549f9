// Package server wires the router, middleware and handlers together and
// runs the HTTP server.
//
// main opens the database and the metadata backend; New assembles
// repository → service → handler on top of them:
//
//	sqlstore.DB → AuthService / EntryService / SnippetService → handlers
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/sakif/devlog/internal/auth"
	"github.com/sakif/devlog/internal/export"
	"github.com/sakif/devlog/internal/handler"
	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/metrics"
	"github.com/sakif/devlog/internal/middleware"
	"github.com/sakif/devlog/internal/repository/sqlstore"
	"github.com/sakif/devlog/internal/service"
	"github.com/sakif/devlog/internal/validate"
)

type Config struct {
	Port      int
	JWTSecret string
	TokenTTL  time.Duration
	// BcryptCost of 0 means auth.DefaultCost.
	BcryptCost int

	CORSAllowedOrigin string
	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	MetagenTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server owns the router and the per-process collaborators built on top of
// the injected database.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	db      *sqlstore.DB
	limiter *middleware.RateLimiter
}

// New builds the full route tree. gen may be nil, which leaves the
// /api/autogen endpoints answering 503.
func New(cfg Config, db *sqlstore.DB, gen metagen.Generator, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	passwords := auth.NewPasswordService()
	if cfg.BcryptCost != 0 {
		passwords = auth.NewPasswordServiceWithCost(cfg.BcryptCost)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimitRPS),
			Burst: cfg.RateLimitBurst,
		}, logger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	v := validate.New()
	authSvc := service.NewAuthService(db, tokens, passwords, logger)
	entrySvc := service.NewEntryService(db, logger)
	snippetSvc := service.NewSnippetService(db, logger)
	genSvc := metagen.NewService(gen, logger,
		metagen.WithTimeout(cfg.MetagenTimeout),
		metagen.WithRecorder(collector),
	)

	authH := handler.NewAuthHandler(authSvc, v, collector, logger)
	entryH := handler.NewEntryHandler(entrySvc, v, logger)
	snippetH := handler.NewSnippetHandler(snippetSvc, v, logger)
	exportH := handler.NewExportHandler(entrySvc, snippetSvc, logger)
	autogenH := handler.NewAutogenHandler(genSvc, v, logger)
	healthH := handler.NewHealthHandler(db, logger)

	// Middleware runs in the order added.
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(collector))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))

	r.Get("/healthz", healthH.HandleHealth)
	r.Handle("/metrics", metrics.Handler(reg))

	r.Group(func(r chi.Router) {
		s.rateLimit(r)
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		s.rateLimit(r)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/me", authH.HandleMe)
			r.Delete("/me", authH.HandleDeleteMe)
			r.Route("/entries", entryH.Routes)
			r.Route("/snippets", snippetH.Routes)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/export-entry-md/{id}", exportH.Entry(export.Markdown))
			r.Get("/export-entry-json/{id}", exportH.Entry(export.JSON))
			r.Get("/export-snippet-md/{id}", exportH.Snippet(export.Markdown))
			r.Get("/export-snippet-json/{id}", exportH.Snippet(export.JSON))

			r.Post("/autogen/title", autogenH.HandleTitle)
			r.Post("/autogen/description", autogenH.HandleDescription)
			r.Post("/autogen/tags", autogenH.HandleTags)
		})
	})

	if !genSvc.Enabled() {
		logger.Warn("no metadata backend configured; /api/autogen will answer 503")
	}
	return s, nil
}

func (s *Server) rateLimit(r chi.Router) {
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background resources. It does not close the database.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Metadata generation can take up to its own timeout.
		WriteTimeout: max(15*time.Second, s.config.MetagenTimeout+5*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", string(s.db.Dialect())),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
