// Package api serves scenario impacts, workspace validation and saved
// forecast versions over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/config"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/store"
	"github.com/sirupsen/logrus"
)

// VersionRepository is the subset of the version store the API reads and
// updates.
type VersionRepository interface {
	ListVersions(ctx context.Context, year int) ([]store.Version, error)
	GetVersionCells(ctx context.Context, id string) ([]domain.ForecastCell, error)
	SetActive(ctx context.Context, id string, year int) error
	DeleteVersion(ctx context.Context, id string) error
	Diff(ctx context.Context, fromID, toID string) (*store.VersionDiff, error)
}

// Dependencies are the collaborators the handlers call. With nil Versions
// the /versions routes answer 503; nil Calc and Parser get defaults.
type Dependencies struct {
	Versions VersionRepository
	Calc     *calculation.CalculationEngine
	Parser   *config.InputParser
}

// Config holds the listen address and shutdown grace period. A zero
// ShutdownTimeout means 10 seconds.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// Server is the HTTP API.
type Server struct {
	router *chi.Mux
	logger *logrus.Logger
	server *http.Server

	shutdownTimeout time.Duration
}

// NewServer wires the routes under /api/v1. A nil logger uses the logrus
// standard logger.
func NewServer(logger *logrus.Logger, cfg Config) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	deps := cfg.Dependencies
	if deps.Calc == nil {
		deps.Calc = calculation.NewCalculationEngine()
	}
	if deps.Parser == nil {
		deps.Parser = config.NewInputParser()
	}
	h := &handler{
		versions: deps.Versions,
		calc:     deps.Calc,
		parser:   deps.Parser,
		now:      time.Now,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/impacts", h.calculateImpacts)
		r.Post("/validate", h.validateWorkspace)

		r.Route("/versions", func(r chi.Router) {
			r.Use(h.requireVersions)
			r.Get("/", h.listVersions)
			r.Get("/diff", h.diffVersions)
			r.Get("/{id}/cells", h.versionCells)
			r.Put("/{id}/active", h.activateVersion)
			r.Delete("/{id}", h.deleteVersion)
		})
	})

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("starting server")
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		err := s.server.Shutdown(shutdownCtx)
		if err != nil {
			s.logger.WithError(err).Error("graceful shutdown failed")
			err = s.server.Close()
		}
		return err
	}
}
