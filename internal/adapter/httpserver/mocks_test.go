package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/scopeconf/internal/domain"
	"github.com/pscheid92/scopeconf/internal/platform/config"
)

const testToken = "s3cr3t-token"

// --- Mock implementations ---

type mockConfigService struct {
	definitionsFn     func() []domain.Definition
	allFn             func(ctx context.Context) (map[string]map[string]any, error)
	getFn             func(ctx context.Context, code, scope string) (any, error)
	getScopeValueFn   func(ctx context.Context, code, scope string) (any, error)
	setFn             func(ctx context.Context, code string, value any, scope string) error
	deleteFn          func(ctx context.Context, code, scope string) error
	clearCacheFn      func(ctx context.Context) error
	setPasswordFn     func(ctx context.Context, code, plain, scope string) error
	isPasswordValidFn func(ctx context.Context, code, plain, scope string) (bool, error)
	setEncryptedFn    func(ctx context.Context, code, plain, scope string) error
	getEncryptedFn    func(ctx context.Context, code, scope string) (string, error)
	setFileFn         func(ctx context.Context, code string, file *domain.UploadedFile, scope string) error
	deleteFileFn      func(ctx context.Context, code, scope string) error
	getFileURLFn      func(ctx context.Context, code, scope string) (string, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockConfigService) Definitions() []domain.Definition {
	if m.definitionsFn != nil {
		return m.definitionsFn()
	}
	return nil
}

func (m *mockConfigService) Definition(code string) (domain.Definition, error) {
	for _, def := range m.Definitions() {
		if def.Code == code {
			return def, nil
		}
	}
	return domain.Definition{}, domain.UnknownKey(code)
}

func (m *mockConfigService) All(ctx context.Context) (map[string]map[string]any, error) {
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockConfigService) Get(ctx context.Context, code, scope string) (any, error) {
	if m.getFn != nil {
		return m.getFn(ctx, code, scope)
	}
	return nil, errNotImplemented
}

func (m *mockConfigService) GetScopeValue(ctx context.Context, code, scope string) (any, error) {
	if m.getScopeValueFn != nil {
		return m.getScopeValueFn(ctx, code, scope)
	}
	return nil, errNotImplemented
}

func (m *mockConfigService) Set(ctx context.Context, code string, value any, scope string) error {
	if m.setFn != nil {
		return m.setFn(ctx, code, value, scope)
	}
	return errNotImplemented
}

func (m *mockConfigService) Delete(ctx context.Context, code, scope string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, code, scope)
	}
	return errNotImplemented
}

func (m *mockConfigService) ClearCache(ctx context.Context) error {
	if m.clearCacheFn != nil {
		return m.clearCacheFn(ctx)
	}
	return nil
}

func (m *mockConfigService) SetPassword(ctx context.Context, code, plain, scope string) error {
	if m.setPasswordFn != nil {
		return m.setPasswordFn(ctx, code, plain, scope)
	}
	return errNotImplemented
}

func (m *mockConfigService) IsPasswordValid(ctx context.Context, code, plain, scope string) (bool, error) {
	if m.isPasswordValidFn != nil {
		return m.isPasswordValidFn(ctx, code, plain, scope)
	}
	return false, errNotImplemented
}

func (m *mockConfigService) SetEncrypted(ctx context.Context, code, plain, scope string) error {
	if m.setEncryptedFn != nil {
		return m.setEncryptedFn(ctx, code, plain, scope)
	}
	return errNotImplemented
}

func (m *mockConfigService) GetEncrypted(ctx context.Context, code, scope string) (string, error) {
	if m.getEncryptedFn != nil {
		return m.getEncryptedFn(ctx, code, scope)
	}
	return "", errNotImplemented
}

func (m *mockConfigService) SetFile(ctx context.Context, code string, file *domain.UploadedFile, scope string) error {
	if m.setFileFn != nil {
		return m.setFileFn(ctx, code, file, scope)
	}
	return errNotImplemented
}

func (m *mockConfigService) DeleteFile(ctx context.Context, code, scope string) error {
	if m.deleteFileFn != nil {
		return m.deleteFileFn(ctx, code, scope)
	}
	return errNotImplemented
}

func (m *mockConfigService) GetFileURL(ctx context.Context, code, scope string) (string, error) {
	if m.getFileURLFn != nil {
		return m.getFileURLFn(ctx, code, scope)
	}
	return "", nil
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		APIToken:    testToken,
		FileBaseURL: "http://cdn.test/files",
	}
}

func newTestServer(t *testing.T, svc configService, opts ...Option) *Server {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(), svc, opts...)
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config, svc configService, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithClock(clockwork.NewFakeClock())}, opts...)
	return NewServer(cfg, svc, opts...)
}

func doRequest(srv *Server, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func authJSON() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + testToken,
		"Content-Type":  "application/json",
	}
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

