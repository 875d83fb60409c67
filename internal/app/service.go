package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// Definitions is the definition registry.
type Definitions interface {
	All() []domain.Definition
	Get(code string) (domain.Definition, error)
	Categories() map[string][]string
}

// Store is the scope-resolving value store.
type Store interface {
	GetAll(ctx context.Context) (map[string]map[string]any, error)
	Get(ctx context.Context, code, scope string) (any, error)
	GetScopeValue(ctx context.Context, code, scope string) (any, error)
	Set(ctx context.Context, code string, value any, scope string) error
	Delete(ctx context.Context, code, scope string) error
	CleanValues(ctx context.Context) error
	CheckScope(ctx context.Context, def domain.Definition, scope string) (string, error)
}

// Recorder counts writes by operation and result. metrics.ConfigMetrics implements it.
type Recorder interface {
	Record(operation, result string)
}

type noopRecorder struct{}

func (noopRecorder) Record(string, string) {}

// Service is the configuration manager.
type Service struct {
	definitions Definitions
	store       Store
	hasher      domain.Hasher
	encryptor   domain.Encryptor
	files       domain.FileManager
	recorder    Recorder
}

func NewService(definitions Definitions, store Store, hasher domain.Hasher, encryptor domain.Encryptor, files domain.FileManager) *Service {
	return &Service{
		definitions: definitions,
		store:       store,
		hasher:      hasher,
		encryptor:   encryptor,
		files:       files,
		recorder:    noopRecorder{},
	}
}

// SetRecorder installs the write counter. Call before first use.
func (s *Service) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	s.recorder = r
}

func (s *Service) Definitions() []domain.Definition {
	return s.definitions.All()
}

func (s *Service) Definition(code string) (domain.Definition, error) {
	return s.definitions.Get(code)
}

func (s *Service) Categories() map[string][]string {
	return s.definitions.Categories()
}

// All returns every resolved value keyed by scope then code.
func (s *Service) All(ctx context.Context) (map[string]map[string]any, error) {
	return s.store.GetAll(ctx)
}

// Get resolves a value through the scope → global → default chain.
func (s *Service) Get(ctx context.Context, code, scope string) (any, error) {
	return s.store.Get(ctx, code, scope)
}

// GetScopeValue returns the value stored at exactly this scope.
func (s *Service) GetScopeValue(ctx context.Context, code, scope string) (any, error) {
	return s.store.GetScopeValue(ctx, code, scope)
}

// Set stores a plain value. Password, encrypted and file fields are refused; they have
// their own flows.
func (s *Service) Set(ctx context.Context, code string, value any, scope string) (err error) {
	defer s.record("set", &err)

	def, err := s.definitions.Get(code)
	if err != nil {
		return err
	}

	switch def.Type {
	case domain.TypePassword:
		return domain.InvalidValue(code, "This configuration is a password, use the password flow!")
	case domain.TypeEncrypted:
		return domain.InvalidValue(code, "This configuration is encrypted, use the encrypted flow!")
	case domain.TypeFile:
		return domain.InvalidValue(code, "This configuration is a file, use the file flow!")
	}

	return s.store.Set(ctx, code, value, scope)
}

// Delete removes the value at this scope so it inherits again. The file behind a
// file field is removed as well.
func (s *Service) Delete(ctx context.Context, code, scope string) (err error) {
	def, err := s.definitions.Get(code)
	if err != nil {
		return err
	}
	if def.Type == domain.TypeFile {
		return s.DeleteFile(ctx, code, scope)
	}

	defer s.record("delete", &err)
	return s.store.Delete(ctx, code, scope)
}

// ClearCache drops every cached snapshot.
func (s *Service) ClearCache(ctx context.Context) (err error) {
	defer s.record("clear_cache", &err)
	return s.store.CleanValues(ctx)
}

// SetPassword hashes plain and stores the hash. An empty plain clears the value.
func (s *Service) SetPassword(ctx context.Context, code, plain, scope string) (err error) {
	defer s.record("set_password", &err)

	def, sc, err := s.resolve(ctx, code, scope, domain.TypePassword, "This configuration is not a password!")
	if err != nil {
		return err
	}

	if strings.TrimSpace(plain) == "" {
		return s.store.Set(ctx, def.Code, nil, sc)
	}

	encoded, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", code, err)
	}
	return s.store.Set(ctx, def.Code, encoded, sc)
}

// IsPasswordValid verifies plain against the stored hash. No stored hash never verifies.
func (s *Service) IsPasswordValid(ctx context.Context, code, plain, scope string) (bool, error) {
	def, sc, err := s.resolve(ctx, code, scope, domain.TypePassword, "This configuration is not a password!")
	if err != nil {
		return false, err
	}

	value, err := s.store.Get(ctx, def.Code, sc)
	if err != nil {
		return false, err
	}

	encoded, _ := value.(string)
	if encoded == "" {
		return false, nil
	}
	return s.hasher.Verify(encoded, plain), nil
}

// SetEncrypted encrypts plain and stores the ciphertext. An empty plain clears the value.
func (s *Service) SetEncrypted(ctx context.Context, code, plain, scope string) (err error) {
	defer s.record("set_encrypted", &err)

	def, sc, err := s.resolve(ctx, code, scope, domain.TypeEncrypted, "This configuration is not encrypted!")
	if err != nil {
		return err
	}

	if plain == "" {
		return s.store.Set(ctx, def.Code, nil, sc)
	}

	ciphertext, err := s.encryptor.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", code, err)
	}
	return s.store.Set(ctx, def.Code, ciphertext, sc)
}

// GetEncrypted resolves and decrypts a value. An empty value is returned as "" without decrypting.
func (s *Service) GetEncrypted(ctx context.Context, code, scope string) (string, error) {
	def, sc, err := s.resolve(ctx, code, scope, domain.TypeEncrypted, "This configuration is not encrypted!")
	if err != nil {
		return "", err
	}

	value, err := s.store.Get(ctx, def.Code, sc)
	if err != nil {
		return "", err
	}

	ciphertext, _ := value.(string)
	if ciphertext == "" {
		return "", nil
	}

	plain, err := s.encryptor.Decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", code, err)
	}
	return plain, nil
}

// SetFile replaces the file stored at this scope. A nil file clears an optional field.
func (s *Service) SetFile(ctx context.Context, code string, file *domain.UploadedFile, scope string) (err error) {
	defer s.record("set_file", &err)

	def, sc, err := s.resolve(ctx, code, scope, domain.TypeFile, "This configuration is not a file!")
	if err != nil {
		return err
	}

	if !s.files.IsAllowed() {
		return domain.FileNotAllowed(code)
	}
	if file == nil && def.Required {
		return domain.MissingRequiredValue(code)
	}
	if file != nil && !def.AllowsExtension(file.Extension()) {
		return domain.FileTypeNotAllowed(code, file.Extension())
	}

	previous, err := s.ownFile(ctx, def, sc)
	if err != nil {
		return err
	}
	if previous != "" {
		if err := s.files.RemoveFile(ctx, def, sc, previous); err != nil {
			return err
		}
	}

	if file == nil {
		return s.store.Set(ctx, def.Code, nil, sc)
	}

	name, err := s.files.SaveFile(ctx, def, sc, *file)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, def.Code, name, sc); err != nil {
		if rmErr := s.files.RemoveFile(ctx, def, sc, name); rmErr != nil {
			slog.Error("Failed to remove orphaned upload", "code", code, "file", name, "error", rmErr)
		}
		return err
	}
	return nil
}

// DeleteFile removes the file stored at this scope and its row.
func (s *Service) DeleteFile(ctx context.Context, code, scope string) (err error) {
	defer s.record("delete_file", &err)

	def, sc, err := s.resolve(ctx, code, scope, domain.TypeFile, "This configuration is not a file!")
	if err != nil {
		return err
	}

	previous, err := s.ownFile(ctx, def, sc)
	if err != nil {
		return err
	}
	if previous != "" {
		if err := s.files.RemoveFile(ctx, def, sc, previous); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, def.Code, sc)
}

// GetFilePath returns the local path of the file that applies at scope, or "" when none is set.
func (s *Service) GetFilePath(ctx context.Context, code, scope string) (string, error) {
	def, layer, name, err := s.effectiveFile(ctx, code, scope)
	if err != nil || name == "" {
		return "", err
	}
	return s.files.FilePath(def, layer, name), nil
}

// GetFileURL returns the public URL of the file that applies at scope, or "" when none is set.
func (s *Service) GetFileURL(ctx context.Context, code, scope string) (string, error) {
	def, layer, name, err := s.effectiveFile(ctx, code, scope)
	if err != nil || name == "" {
		return "", err
	}
	return s.files.FileURL(def, layer, name), nil
}

// resolve loads the definition, checks its type and normalises scope.
func (s *Service) resolve(ctx context.Context, code, scope string, want domain.FieldType, mismatch string) (domain.Definition, string, error) {
	def, err := s.definitions.Get(code)
	if err != nil {
		return domain.Definition{}, "", err
	}
	if def.Type != want {
		return domain.Definition{}, "", domain.InvalidValue(code, mismatch)
	}

	sc, err := s.store.CheckScope(ctx, def, scope)
	if err != nil {
		return domain.Definition{}, "", err
	}
	return def, sc, nil
}

// ownFile returns the file name stored at exactly scope, or "".
func (s *Service) ownFile(ctx context.Context, def domain.Definition, scope string) (string, error) {
	value, err := s.store.GetScopeValue(ctx, def.Code, scope)
	if errors.Is(err, domain.ErrNoValueAtScope) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	name, _ := value.(string)
	return name, nil
}

// effectiveFile finds the layer whose file applies at scope: the scope itself, then global.
func (s *Service) effectiveFile(ctx context.Context, code, scope string) (domain.Definition, string, string, error) {
	def, sc, err := s.resolve(ctx, code, scope, domain.TypeFile, "This configuration is not a file!")
	if err != nil {
		return domain.Definition{}, "", "", err
	}

	layers := []string{""}
	if sc != "" {
		layers = []string{sc, ""}
	}

	for _, layer := range layers {
		value, err := s.store.GetScopeValue(ctx, def.Code, layer)
		if errors.Is(err, domain.ErrNoValueAtScope) {
			continue
		}
		if err != nil {
			return domain.Definition{}, "", "", err
		}
		name, _ := value.(string)
		return def, layer, name, nil
	}
	return def, "", "", nil
}

func (s *Service) record(operation string, err *error) {
	result := "ok"
	if *err != nil {
		result = string(domain.KindOf(*err))
		if result == "" {
			result = "error"
		}
	}
	s.recorder.Record(operation, result)
}
