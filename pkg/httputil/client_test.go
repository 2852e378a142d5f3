package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "development",
		LogLevel: "error",
		Sources: config.SourcesConfig{
			RequestTimeout: 5 * time.Second,
		},
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	log := logger.New(cfg)

	client := New(cfg, log)
	require.NotNil(t, client)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 3, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg))

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"AAPL","price":187.5}`))
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg))

	var dest struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	err := client.GetJSON(context.Background(), server.URL, &dest)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", dest.Symbol)
	assert.Equal(t, 187.5, dest.Price)
}

func TestGetJSONNonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).DisableRetry()

	var dest map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, &dest)
	assert.Error(t, err)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).WithRetry(3, 10*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDisableRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).DisableRetry()

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(http.StatusInternalServerError))
	assert.True(t, IsRetryableError(http.StatusBadGateway))
	assert.True(t, IsRetryableError(http.StatusTooManyRequests))
	assert.False(t, IsRetryableError(http.StatusOK))
	assert.False(t, IsRetryableError(http.StatusNotFound))
}

func TestWithRateLimit(t *testing.T) {
	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).WithRateLimit(5)
	require.NotNil(t, client.limiter)
	assert.Equal(t, float64(5), float64(client.limiter.Limit()))
}
