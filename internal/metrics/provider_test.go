package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("builds an exporter-backed provider", func(t *testing.T) {
		provider, err := NewProvider("compliance_vault")

		require.NoError(t, err)
		assert.NotNil(t, provider.meterProvider)
		assert.NotNil(t, provider.exporter)
		assert.NotNil(t, provider.registry)
	})

	t.Run("empty namespace is allowed", func(t *testing.T) {
		provider, err := NewProvider("")

		require.NoError(t, err)
		assert.NotNil(t, provider)
	})
}

func TestProvider_Handler(t *testing.T) {
	t.Run("scrape exposes runtime collectors", func(t *testing.T) {
		provider, err := NewProvider("compliance_vault")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		provider.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		require.Equal(t, 200, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "go_goroutines")
		assert.Contains(t, string(body), "process_cpu_seconds_total")
	})
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("flushes and releases", func(t *testing.T) {
		provider, err := NewProvider("compliance_vault")
		require.NoError(t, err)

		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("tolerates a zero provider", func(t *testing.T) {
		provider := &Provider{}

		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}
