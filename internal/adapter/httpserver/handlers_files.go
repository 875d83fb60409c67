package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/scopeconf/internal/domain"
	apperrors "github.com/pscheid92/scopeconf/internal/platform/errors"
)

const uploadField = "file"

type fileResponse struct {
	Code  string `json:"code"`
	Scope string `json:"scope"`
	URL   string `json:"url"`
}

// handleUploadFile stores the multipart "file" part. A request without that part clears the value.
func (s *Server) handleUploadFile(c echo.Context) error {
	code, scope := c.Param("code"), c.FormValue("scope")

	var upload *domain.UploadedFile
	header, err := c.FormFile(uploadField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return apperrors.ValidationError("invalid multipart upload")
	default:
		src, err := header.Open()
		if err != nil {
			return apperrors.InternalError("failed to open upload", err)
		}
		defer func() { _ = src.Close() }()
		upload = &domain.UploadedFile{Name: header.Filename, Content: src}
	}

	if err := s.svc.SetFile(c.Request().Context(), code, upload, scope); err != nil {
		return err
	}

	url, err := s.svc.GetFileURL(c.Request().Context(), code, scope)
	if err != nil {
		return err
	}
	if err := c.JSON(http.StatusCreated, fileResponse{Code: code, Scope: scopeLabel(scope), URL: url}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetFileURL(c echo.Context) error {
	code, scope := c.Param("code"), scopeParam(c)

	url, err := s.svc.GetFileURL(c.Request().Context(), code, scope)
	if err != nil {
		return err
	}
	return writeJSON(c, fileResponse{Code: code, Scope: scopeLabel(scope), URL: url})
}

func (s *Server) handleDeleteFile(c echo.Context) error {
	if err := s.svc.DeleteFile(c.Request().Context(), c.Param("code"), scopeParam(c)); err != nil {
		return err
	}
	return writeOK(c)
}
