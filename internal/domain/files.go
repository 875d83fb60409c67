package domain

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// UploadedFile is an incoming file for a file-backed definition.
type UploadedFile struct {
	Name    string
	Content io.Reader
}

// Extension returns the lowercase extension of the original file name, without the dot.
func (f UploadedFile) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// FileManager stores the files behind file-backed definitions.
type FileManager interface {
	IsAllowed() bool
	SaveFile(ctx context.Context, def Definition, scope string, file UploadedFile) (string, error)
	RemoveFile(ctx context.Context, def Definition, scope string, filename string) error
	FilePath(def Definition, scope string, filename string) string
	FileURL(def Definition, scope string, filename string) string
}
