package httpserver

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/scopeconf/internal/domain"
	"github.com/pscheid92/scopeconf/internal/platform/correlation"
	apperrors "github.com/pscheid92/scopeconf/internal/platform/errors"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.HeaderName))
		c.Response().Header().Set(correlation.HeaderName, id)
		c.SetRequest(c.Request().WithContext(correlation.WithID(c.Request().Context(), id)))
		return next(c)
	}
}

// requireToken checks the bearer token against API_TOKEN. An empty API_TOKEN disables the check.
func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.APIToken == "" {
			return next(c)
		}

		token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.APIToken)) != 1 {
			return apperrors.UnauthorizedError("missing or invalid API token")
		}
		return next(c)
	}
}

func (s *Server) errorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if _, ok := errors.AsType[*echo.HTTPError](err); ok {
				return err
			}

			structuredErr := fromDomain(err)
			if s.httpMetrics != nil {
				s.httpMetrics.ErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
			}
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// fromDomain maps configuration errors onto the structured HTTP error.
func fromDomain(err error) *apperrors.Error {
	if structuredErr, ok := errors.AsType[*apperrors.Error](err); ok {
		return structuredErr
	}

	domainErr, ok := errors.AsType[*domain.Error](err)
	if !ok {
		return apperrors.InternalError("internal server error", err)
	}

	var out *apperrors.Error
	switch domainErr.Kind {
	case domain.KindUnknownKey, domain.KindNoValueAtScope:
		out = apperrors.NotFoundError(domainErr.Message)
	case domain.KindStorageUnwritable:
		out = apperrors.UnavailableError(domainErr.Message, domainErr.Cause)
	default:
		out = apperrors.ValidationError(domainErr.Message)
	}

	out.WithContext("kind", string(domainErr.Kind))
	if domainErr.Code != "" {
		out.WithContext("code", domainErr.Code)
	}
	if domainErr.Scope != "" {
		out.WithContext("scope", domainErr.Scope)
	}
	return out
}

func logError(c echo.Context, err *apperrors.Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Rejected request", attrs...)
	case apperrors.TypeUnauthorized, apperrors.TypeConflict:
		slog.WarnContext(ctx, "Refused request", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Request failed", attrs...)
	}
}

func writeOK(c echo.Context) error {
	if err := c.JSON(http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func writeJSON(c echo.Context, body any) error {
	if err := c.JSON(http.StatusOK, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
