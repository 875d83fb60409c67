package httpserver

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const writeBurst = 10

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware(s.staticFilesPrefix()))
	}
	s.echo.Use(s.errorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}))
	s.echo.Use(middleware.BodyLimit("20M"))

	s.registerHealthRoutes()
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	if prefix := s.staticFilesPrefix(); prefix != "" {
		s.echo.Static(prefix, s.config.FileStorageDir)
	}

	s.registerAPIRoutes()
}

// staticFilesPrefix is the route uploads are served under, or "" when FILE_BASE_URL points
// elsewhere (a CDN) or uploads are disabled.
func (s *Server) staticFilesPrefix() string {
	base := s.config.FileBaseURL
	if !s.config.FileUploadsEnabled || !strings.HasPrefix(base, "/") {
		return ""
	}
	return strings.TrimRight(base, "/")
}

func (s *Server) registerAPIRoutes() {
	api := s.echo.Group("/api")

	api.GET("/definitions", s.handleDefinitions)
	api.GET("/values", s.handleAllValues)
	api.GET("/values/:code", s.handleGetValue)
	api.GET("/values/:code/own", s.handleGetScopeValue)
	api.GET("/files/:code", s.handleGetFileURL)

	protected := []echo.MiddlewareFunc{s.requireToken}
	if s.config.WriteRateLimit > 0 {
		protected = append(protected, newRateLimiter(s.config.WriteRateLimit, writeBurst))
	}
	admin := api.Group("", protected...)

	admin.PUT("/values/:code", s.handleSetValue)
	admin.DELETE("/values/:code", s.handleDeleteValue)
	admin.PUT("/passwords/:code", s.handleSetPassword)
	admin.POST("/passwords/:code/verify", s.handleVerifyPassword)
	admin.PUT("/secrets/:code", s.handleSetSecret)
	admin.GET("/secrets/:code", s.handleGetSecret)
	admin.POST("/files/:code", s.handleUploadFile)
	admin.DELETE("/files/:code", s.handleDeleteFile)
	admin.POST("/cache/clear", s.handleClearCache)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
