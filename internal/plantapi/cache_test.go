package plantapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries map[string][]byte
}

func (m *memoryCache) GetAnalysisCache(fingerprint string, maxAge time.Duration) ([]byte, error) {
	return m.entries[fingerprint], nil
}

func (m *memoryCache) SetAnalysisCache(fingerprint string, data []byte) error {
	m.entries[fingerprint] = data
	return nil
}

func TestCachedClient(t *testing.T) {
	var calls atomic.Int32
	inner := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"success": true, "plant_info": {"species": "Monstera deliciosa", "confidence": 0.9}, "recommendations": ["Limpia las hojas"]}`)
	})
	cache := &memoryCache{entries: map[string][]byte{}}
	client := NewCachedClient(inner, cache, time.Hour)

	first, err := client.AnalyzePlant(context.Background(), testImage, "riego semanal")
	require.NoError(t, err)
	second, err := client.AnalyzePlant(context.Background(), testImage, "riego semanal")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Len(t, cache.entries, 1)

	// A different description is a different request.
	_, err = client.AnalyzePlant(context.Background(), testImage, "riego diario")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachedClient_FailuresNotCached(t *testing.T) {
	inner := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"detail":{"error":"image_analysis_unavailable","message":"x"}}`)
	})
	cache := &memoryCache{entries: map[string][]byte{}}
	client := NewCachedClient(inner, cache, 0)

	_, err := client.AnalyzePlant(context.Background(), testImage, "")
	assert.Equal(t, KindCapabilityUnavailable, KindOf(err))
	assert.Empty(t, cache.entries)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("ab"), "c")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("ab"), "c"))
	assert.NotEqual(t, a, Fingerprint([]byte("a"), "bc"))
	assert.NotEqual(t, a, Fingerprint([]byte("ab"), ""))
}
