package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
	"github.com/Shatzii/Go4it-V2-sub020/pkg/circuitbreaker"
)

func testClient(baseURL string) *CatalogClient {
	cfg := DefaultCatalogClientConfig(baseURL)
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCatalogClient(cfg)
}

func TestCatalogClient_FetchTemplates(t *testing.T) {
	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"title": "Fractions", "body": "Intro to fractions.", "duration_minutes": 25, "topics": ["fractions", "division"]},
				{"title": "Decimals", "body": "Intro to decimals.", "duration_minutes": 20, "topics": ["decimals"]}
			]
		}`))
	}))
	defer server.Close()

	cfg := DefaultCatalogClientConfig(server.URL)
	cfg.APIKey = "secret-key"
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewCatalogClient(cfg)

	templates, err := client.FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	require.NoError(t, err)

	require.Len(t, templates, 2)
	assert.Equal(t, "Fractions", templates[0].Title)
	assert.Equal(t, shared.Minutes(25), templates[0].BaseDuration)
	assert.Equal(t, []string{"fractions", "division"}, templates[0].Topics.Strings())

	assert.Equal(t, "domain=math&level=beginner", gotQuery)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestCatalogClient_NotFoundMeansEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	assert.ErrorIs(t, err, shared.ErrCatalogEmpty)
}

func TestCatalogClient_EmptyDataMeansEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": []}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	assert.ErrorIs(t, err, shared.ErrCatalogEmpty)
}

func TestCatalogClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	assert.ErrorIs(t, err, shared.ErrCatalogUnavailable)
}

func TestCatalogClient_UnsuccessfulEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "maintenance window"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	require.ErrorIs(t, err, shared.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "maintenance window")
}

func TestCatalogClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	assert.ErrorIs(t, err, shared.ErrCatalogUnavailable)
}

func TestCatalogClient_BreakerOpensAfterThreshold(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultCatalogClientConfig(server.URL)
	cfg.BreakerThreshold = 3
	cfg.BreakerTimeout = time.Hour
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewCatalogClient(cfg)

	for i := 0; i < 3; i++ {
		_, err := client.FetchTemplates(context.Background(), "math", learner.LevelBeginner)
		require.Error(t, err)
	}
	require.Equal(t, circuitbreaker.StateOpen, client.BreakerState())

	// The open circuit fails fast without touching the catalog.
	_, err := client.FetchTemplates(context.Background(), "math", learner.LevelBeginner)
	assert.ErrorIs(t, err, shared.ErrCatalogUnavailable)
	assert.Equal(t, int64(3), hits.Load())
}

func TestCatalogClient_EmptyCatalogDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := DefaultCatalogClientConfig(server.URL)
	cfg.BreakerThreshold = 2
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewCatalogClient(cfg)

	for i := 0; i < 5; i++ {
		_, err := client.FetchTemplates(context.Background(), "math", learner.LevelBeginner)
		require.ErrorIs(t, err, shared.ErrCatalogEmpty)
	}
	assert.Equal(t, circuitbreaker.StateClosed, client.BreakerState())
}

func TestCatalogClient_IsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"success": true}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, testClient(server.URL).IsHealthy(context.Background()))

	server.Close()
	assert.False(t, testClient(server.URL).IsHealthy(context.Background()))
}
