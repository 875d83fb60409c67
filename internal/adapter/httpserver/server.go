package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/scopeconf/internal/adapter/metrics"
	"github.com/pscheid92/scopeconf/internal/domain"
	"github.com/pscheid92/scopeconf/internal/platform/config"
)

// configService is the configuration manager as seen by the HTTP surface.
type configService interface {
	Definitions() []domain.Definition
	Definition(code string) (domain.Definition, error)
	All(ctx context.Context) (map[string]map[string]any, error)
	Get(ctx context.Context, code, scope string) (any, error)
	GetScopeValue(ctx context.Context, code, scope string) (any, error)
	Set(ctx context.Context, code string, value any, scope string) error
	Delete(ctx context.Context, code, scope string) error
	ClearCache(ctx context.Context) error
	SetPassword(ctx context.Context, code, plain, scope string) error
	IsPasswordValid(ctx context.Context, code, plain, scope string) (bool, error)
	SetEncrypted(ctx context.Context, code, plain, scope string) error
	GetEncrypted(ctx context.Context, code, scope string) (string, error)
	SetFile(ctx context.Context, code string, file *domain.UploadedFile, scope string) error
	DeleteFile(ctx context.Context, code, scope string) error
	GetFileURL(ctx context.Context, code, scope string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	svc configService

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler

	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

type Option func(*Server)

// WithMetrics records request metrics and serves metricsHandler on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, metricsHandler http.Handler) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.metricsHandler = metricsHandler
	}
}

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) {
		s.healthChecks = append(s.healthChecks, checks...)
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

func NewServer(cfg *config.Config, svc configService, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:   e,
		config: cfg,
		svc:    svc,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.startTime = srv.clock.Now()

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
