// Package service implements adapters to external services.
// The content catalog is owned by a separate content-management service;
// this package talks to it over HTTP and shields the engine from its
// failures with a circuit breaker.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
	"github.com/Shatzii/Go4it-V2-sub020/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogClientConfig contains configuration for the catalog HTTP client.
type CatalogClientConfig struct {
	// BaseURL is the catalog service base URL.
	BaseURL string

	// APIKey is the API key for authentication (if applicable).
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// BreakerThreshold is the number of consecutive failures before the
	// circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration

	// BreakerHalfOpenMax is the number of probe requests allowed half-open.
	BreakerHalfOpenMax int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultCatalogClientConfig returns sensible defaults.
func DefaultCatalogClientConfig(baseURL string) CatalogClientConfig {
	return CatalogClientConfig{
		BaseURL:            baseURL,
		Timeout:            10 * time.Second,
		BreakerThreshold:   5,
		BreakerTimeout:     60 * time.Second,
		BreakerHalfOpenMax: 1,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// templateDTO is the catalog's wire representation of source material.
type templateDTO struct {
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	DurationMinutes int      `json:"duration_minutes"`
	Topics          []string `json:"topics"`
}

// templatesResponse is the catalog's templates endpoint envelope.
type templatesResponse struct {
	Success bool          `json:"success"`
	Data    []templateDTO `json:"data"`
	Error   string        `json:"error,omitempty"`
}

// CatalogClient implements content.Catalog over the catalog service's HTTP
// API. Failures are mapped to shared.ErrCatalogUnavailable so callers decide
// whether to retry; the circuit breaker keeps a dead catalog from being
// hammered on every path generation.
type CatalogClient struct {
	config     CatalogClientConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewCatalogClient creates a catalog client with the given configuration.
func NewCatalogClient(cfg CatalogClientConfig) *CatalogClient {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	logger := cfg.Logger

	breaker := circuitbreaker.New(
		"content-catalog",
		circuitbreaker.WithFailureThreshold(cfg.BreakerThreshold),
		circuitbreaker.WithTimeout(cfg.BreakerTimeout),
		circuitbreaker.WithMaxHalfOpenRequests(cfg.BreakerHalfOpenMax),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
		// Empty results are a data condition, not a service failure.
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, shared.ErrCatalogEmpty)
		}),
	)

	return &CatalogClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: breaker,
		logger:  logger,
	}
}

// FetchTemplates returns catalog material for the given domain and level.
func (c *CatalogClient) FetchTemplates(ctx context.Context, domain string, level learner.Level) ([]content.Template, error) {
	params := url.Values{}
	params.Set("domain", domain)
	params.Set("level", string(level))

	path := "/api/v1/templates?" + params.Encode()

	var response templatesResponse
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.doRequest(ctx, path, &response)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			c.logger.Warn("catalog circuit open", "domain", domain, "level", level)
			return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
		}
		return nil, err
	}

	if !response.Success {
		return nil, fmt.Errorf("%w: %s", shared.ErrCatalogUnavailable, response.Error)
	}

	if len(response.Data) == 0 {
		return nil, shared.ErrCatalogEmpty
	}

	templates := make([]content.Template, 0, len(response.Data))
	for _, dto := range response.Data {
		templates = append(templates, content.Template{
			Title:        dto.Title,
			Body:         dto.Body,
			BaseDuration: shared.Minutes(dto.DurationMinutes),
			Topics:       shared.TagsFromStrings(dto.Topics),
		})
	}

	return templates, nil
}

// doRequest performs a single GET against the catalog service.
func (c *CatalogClient) doRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", shared.ErrCatalogUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrCatalogEmpty
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", shared.ErrCatalogUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", shared.ErrCatalogUnavailable, err)
	}

	return nil
}

// IsHealthy checks if the catalog service is reachable.
func (c *CatalogClient) IsHealthy(ctx context.Context) bool {
	var response struct {
		Success bool `json:"success"`
	}
	err := c.doRequest(ctx, "/health", &response)
	return err == nil
}

// BreakerState returns the current circuit breaker state for diagnostics.
func (c *CatalogClient) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
