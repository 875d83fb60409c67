package httpserver

import (
	"github.com/labstack/echo/v4"

	apperrors "github.com/pscheid92/scopeconf/internal/platform/errors"
)

type passwordRequest struct {
	Password string `json:"password"`
	Scope    string `json:"scope"`
}

type secretRequest struct {
	Value string `json:"value"`
	Scope string `json:"scope"`
}

func (s *Server) handleSetPassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.svc.SetPassword(c.Request().Context(), c.Param("code"), req.Password, req.Scope); err != nil {
		return err
	}
	return writeOK(c)
}

func (s *Server) handleVerifyPassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	valid, err := s.svc.IsPasswordValid(c.Request().Context(), c.Param("code"), req.Password, req.Scope)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]bool{"valid": valid})
}

func (s *Server) handleSetSecret(c echo.Context) error {
	var req secretRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.svc.SetEncrypted(c.Request().Context(), c.Param("code"), req.Value, req.Scope); err != nil {
		return err
	}
	return writeOK(c)
}

func (s *Server) handleGetSecret(c echo.Context) error {
	code, scope := c.Param("code"), scopeParam(c)

	plain, err := s.svc.GetEncrypted(c.Request().Context(), code, scope)
	if err != nil {
		return err
	}
	return writeJSON(c, valueResponse{Code: code, Scope: scopeLabel(scope), Value: plain})
}
