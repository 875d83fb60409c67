package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedServer(t *testing.T, calls *int) *Server {
	t.Helper()

	cfg := testConfig()
	cfg.WriteRateLimit = 0.01

	svc := &mockConfigService{
		clearCacheFn: func(context.Context) error {
			*calls++
			return nil
		},
	}
	return newTestServerWithConfig(t, cfg, svc)
}

func clearCacheFrom(srv *Server, ip string) int {
	headers := authJSON()
	headers["X-Real-IP"] = ip
	return doRequest(srv, http.MethodPost, "/api/cache/clear", nil, headers).Code
}

func TestRateLimit_AdminWritesWithinBurst(t *testing.T) {
	var calls int
	srv := rateLimitedServer(t, &calls)

	for range writeBurst {
		assert.Equal(t, http.StatusOK, clearCacheFrom(srv, "10.0.0.1"))
	}
	assert.Equal(t, writeBurst, calls)
}

func TestRateLimit_BlocksBeyondBurst(t *testing.T) {
	var calls int
	srv := rateLimitedServer(t, &calls)

	for range writeBurst {
		require.Equal(t, http.StatusOK, clearCacheFrom(srv, "10.0.0.1"))
	}

	headers := authJSON()
	headers["X-Real-IP"] = "10.0.0.1"
	rec := doRequest(srv, http.MethodPost, "/api/cache/clear", nil, headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, writeBurst, calls)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate limit exceeded", resp["error"])
	assert.Equal(t, "rate_limited", resp["type"])
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	var calls int
	srv := rateLimitedServer(t, &calls)

	for range writeBurst {
		require.Equal(t, http.StatusOK, clearCacheFrom(srv, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, clearCacheFrom(srv, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, clearCacheFrom(srv, "10.0.0.2"))
}

func TestRateLimit_PublicReadsAreNotLimited(t *testing.T) {
	var calls int
	srv := rateLimitedServer(t, &calls)

	for range writeBurst + 5 {
		rec := doRequest(srv, http.MethodGet, "/api/definitions", nil, map[string]string{"X-Real-IP": "10.0.0.1"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	cfg := testConfig()
	cfg.WriteRateLimit = 0

	srv := newTestServerWithConfig(t, cfg, &mockConfigService{})
	for range writeBurst + 5 {
		headers := authJSON()
		headers["X-Real-IP"] = "10.0.0.1"
		require.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/cache/clear", nil, headers).Code)
	}
}
