package httpserver

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/scopeconf/internal/domain"
	apperrors "github.com/pscheid92/scopeconf/internal/platform/errors"
)

type definitionResponse struct {
	Code      string   `json:"code"`
	Type      string   `json:"type"`
	Category  string   `json:"category"`
	Required  bool     `json:"required"`
	Scoped    bool     `json:"scoped"`
	Default   *string  `json:"default,omitempty"`
	Options   string   `json:"options,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Help      string   `json:"help,omitempty"`
	FileTypes []string `json:"file_types,omitempty"`
}

func toDefinitionResponse(def domain.Definition) definitionResponse {
	return definitionResponse{
		Code:      def.Code,
		Type:      string(def.Type),
		Category:  def.Category(),
		Required:  def.Required,
		Scoped:    def.Scoped,
		Default:   def.Default,
		Options:   def.Options,
		Unit:      def.Unit,
		Help:      def.Help,
		FileTypes: def.FileTypes,
	}
}

type valueResponse struct {
	Code  string `json:"code"`
	Scope string `json:"scope"`
	Value any    `json:"value"`
}

type setValueRequest struct {
	Value any    `json:"value"`
	Scope string `json:"scope"`
}

func scopeParam(c echo.Context) string {
	return c.QueryParam("scope")
}

func scopeLabel(scope string) string {
	if domain.IsGlobalScope(scope) {
		return domain.GlobalScope
	}
	return scope
}

func (s *Server) handleDefinitions(c echo.Context) error {
	defs := s.svc.Definitions()
	out := make([]definitionResponse, len(defs))
	for i, def := range defs {
		out[i] = toDefinitionResponse(def)
	}
	return writeJSON(c, out)
}

// handleAllValues returns scope → code → value, or only code → value when ?scope= is given.
func (s *Server) handleAllValues(c echo.Context) error {
	all, err := s.svc.All(c.Request().Context())
	if err != nil {
		return err
	}

	if !c.QueryParams().Has("scope") {
		return writeJSON(c, all)
	}

	scope := scopeLabel(scopeParam(c))
	values, ok := all[scope]
	if !ok {
		return domain.UnknownScope(scope)
	}
	return writeJSON(c, values)
}

func (s *Server) handleGetValue(c echo.Context) error {
	code, scope := c.Param("code"), scopeParam(c)

	value, err := s.svc.Get(c.Request().Context(), code, scope)
	if err != nil {
		return err
	}
	return writeJSON(c, valueResponse{Code: code, Scope: scopeLabel(scope), Value: value})
}

func (s *Server) handleGetScopeValue(c echo.Context) error {
	code, scope := c.Param("code"), scopeParam(c)

	value, err := s.svc.GetScopeValue(c.Request().Context(), code, scope)
	if err != nil {
		return err
	}
	return writeJSON(c, valueResponse{Code: code, Scope: scopeLabel(scope), Value: value})
}

func (s *Server) handleSetValue(c echo.Context) error {
	// Numbers stay json.Number so large integers keep their precision.
	var req setValueRequest
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.svc.Set(c.Request().Context(), c.Param("code"), req.Value, req.Scope); err != nil {
		return err
	}
	return writeOK(c)
}

func (s *Server) handleDeleteValue(c echo.Context) error {
	if err := s.svc.Delete(c.Request().Context(), c.Param("code"), scopeParam(c)); err != nil {
		return err
	}
	return writeOK(c)
}

func (s *Server) handleClearCache(c echo.Context) error {
	if err := s.svc.ClearCache(c.Request().Context()); err != nil {
		return err
	}
	return writeOK(c)
}
