// Package viacep is a client for the ViaCEP address lookup API.
//
// A lookup is a single GET {baseURL}/{code}/json/. ViaCEP answers unknown codes with
// HTTP 200 and {"erro": true}; malformed codes get HTTP 400. Both are reported as
// models.ErrNotFound. Network failures and unusable payloads are models.ErrTransport.
package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/evyataryagoni/cepcache/internal/metrics"
	"github.com/evyataryagoni/cepcache/internal/models"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public ViaCEP endpoint
const DefaultBaseURL = "https://viacep.com.br/ws"

const maxBodyBytes = 1 << 20

// Config holds client settings
type Config struct {
	BaseURL           string        // defaults to DefaultBaseURL
	Timeout           time.Duration // http.Client timeout, 0 = none
	RequestsPerSecond float64       // outbound throttle, 0 = unlimited
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (Config.Timeout is then ignored)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock sets the time source used to stamp QueriedAt
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithMetrics enables upstream request metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.logger = log.WithComponent("ViaCEPClient") }
}

// Client looks up addresses on ViaCEP
// Safe for concurrent use
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// New creates a ViaCEP client
func New(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
		logger:     logger.Nop(),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response mirrors the ViaCEP JSON payload
// encoding/json matches keys case-insensitively, so "Logradouro" decodes too
type response struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Erro        flag   `json:"erro"`
}

// flag decodes the error marker, which ViaCEP has sent both as true and as "true"
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "true":
		*f = true
	case "false", "null", "":
		*f = false
	default:
		return fmt.Errorf("unexpected erro value %s", data)
	}
	return nil
}

// Lookup fetches the address for a normalized 8-digit code
func (c *Client) Lookup(ctx context.Context, code string) (*models.PostalRecord, error) {
	start := time.Now()
	record, result, err := c.lookup(ctx, code)

	if c.metrics != nil {
		c.metrics.UpstreamRequestsTotal.WithLabelValues(result).Inc()
		c.metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	}
	return record, err
}

func (c *Client) lookup(ctx context.Context, code string) (*models.PostalRecord, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "throttled", fmt.Errorf("%w: throttle wait: %w", models.ErrTransport, err)
		}
	}

	endpoint := c.baseURL + "/" + url.PathEscape(code) + "/json/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "error", fmt.Errorf("%w: build request: %w", models.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", endpoint).Msg("Querying ViaCEP")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("cep", code).Msg("ViaCEP request failed")
		return nil, "error", fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("cep", code).
			Str("body", string(body)).
			Msg("ViaCEP returned non-success status")
		return nil, "not_found", fmt.Errorf("%w: upstream status %d", models.ErrNotFound, resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		c.logger.Error().Err(err).Str("cep", code).Msg("Failed to decode ViaCEP response")
		return nil, "error", fmt.Errorf("%w: decode response: %w", models.ErrTransport, err)
	}

	if payload.Erro {
		c.logger.Debug().Str("cep", code).Msg("ViaCEP reported unknown postal code")
		return nil, "not_found", fmt.Errorf("%w: %s", models.ErrNotFound, code)
	}

	// City-wide codes have no street or neighborhood, city and state are always present
	if payload.Localidade == "" || payload.UF == "" {
		c.logger.Error().Str("cep", code).Msg("ViaCEP response missing city or state")
		return nil, "error", fmt.Errorf("%w: response for %s is missing city or state", models.ErrTransport, code)
	}

	queriedAt := c.now()
	return &models.PostalRecord{
		Code:         code,
		Street:       payload.Logradouro,
		Complement:   payload.Complemento,
		Neighborhood: payload.Bairro,
		City:         payload.Localidade,
		State:        payload.UF,
		QueriedAt:    &queriedAt,
	}, "found", nil
}
