package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/compliance-vault/internal/metrics"
)

func TestMetricsServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("healthz responds ok", func(t *testing.T) {
		server := NewMetricsServer("localhost", 0, logger, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		server.GetHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("metrics endpoint serves prometheus text", func(t *testing.T) {
		provider, err := metrics.NewProvider("compliance_vault")
		require.NoError(t, err)
		t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

		server := NewMetricsServer("localhost", 0, logger, provider)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		server.GetHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics route absent without a provider", func(t *testing.T) {
		server := NewMetricsServer("localhost", 0, logger, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		server.GetHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
