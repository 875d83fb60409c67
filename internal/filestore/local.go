// Package filestore keeps the files behind file-backed definitions on local disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// Local stores files under dir/<code>/<scope>/<generated name> and serves them below baseURL.
type Local struct {
	dir     string
	baseURL string
	allowed bool
}

func NewLocal(dir, baseURL string, allowed bool) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), allowed: allowed}
}

func (l *Local) IsAllowed() bool {
	return l.allowed
}

// SaveFile copies the upload to a fresh name and returns that name.
func (l *Local) SaveFile(_ context.Context, def domain.Definition, scope string, file domain.UploadedFile) (string, error) {
	if file.Content == nil {
		return "", fmt.Errorf("file %q has no content", file.Name)
	}

	dir := l.folder(def, scope)
	if err := ensureWritable(dir); err != nil {
		return "", err
	}

	name := uuid.NewString()
	if ext := file.Extension(); ext != "" {
		name += "." + ext
	}

	target := filepath.Join(dir, name)
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", domain.StorageUnwritable(dir, err)
	}

	if _, err := io.Copy(out, file.Content); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	slog.Info("Stored configuration file", "code", def.Code, "scope", scopeFolder(scope), "file", name)
	return name, nil
}

// RemoveFile deletes the file. A file that is already gone is not an error.
func (l *Local) RemoveFile(_ context.Context, def domain.Definition, scope string, filename string) error {
	if filename == "" {
		return nil
	}

	p := l.FilePath(def, scope, filename)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}

func (l *Local) FilePath(def domain.Definition, scope string, filename string) string {
	return filepath.Join(l.folder(def, scope), filepath.Base(filename))
}

func (l *Local) FileURL(def domain.Definition, scope string, filename string) string {
	return l.baseURL + "/" + path.Join(url.PathEscape(def.Code), url.PathEscape(scopeFolder(scope)), url.PathEscape(path.Base(filename)))
}

func (l *Local) folder(def domain.Definition, scope string) string {
	return filepath.Join(l.dir, def.Code, scopeFolder(scope))
}

func scopeFolder(scope string) string {
	if domain.IsGlobalScope(scope) {
		return domain.GlobalScope
	}
	return scope
}

// ensureWritable creates dir and proves a file can be created in it.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.StorageUnwritable(dir, err)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return domain.StorageUnwritable(dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
