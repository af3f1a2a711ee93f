// Package brvm provides a client for BRVM market data
package brvm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/models"
)

const (
	DefaultBaseURL   = "https://www.richbourse.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	sourceName = "richbourse"
)

// Compile-time interface check
var _ interfaces.PriceProvider = (*Client)(nil)

// Client implements the PriceProvider interface against the Richbourse API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new BRVM client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brvm api error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// quotePayload mirrors the Richbourse quote response. Amounts arrive as
// locale-formatted strings ("5 000", "CFA 27,995") and are normalized by
// parseAmount.
type quotePayload struct {
	Symbole      string  `json:"symbole"`
	Nom          string  `json:"nom"`
	Cours        string  `json:"cours"`
	VariationPct float64 `json:"variation_pct"`
	Volume       int64   `json:"volume"`
}

type historyPayload struct {
	Symbole string `json:"symbole"`
	Cours   []struct {
		Date    string `json:"date"`
		Cloture string `json:"cloture"`
	} `json:"cours"`
}

// GetQuote fetches the current price for a ticker
func (c *Client) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = models.NormalizeTicker(ticker)

	var payload quotePayload
	endpoint := fmt.Sprintf("/quote/%s", url.PathEscape(ticker))
	if err := c.get(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	price, err := parseAmount(payload.Cours)
	if err != nil {
		return nil, fmt.Errorf("unparseable price %q for %s: %w", payload.Cours, ticker, err)
	}

	return &models.Quote{
		Ticker:    ticker,
		Name:      payload.Nom,
		Price:     price,
		Currency:  "XOF",
		ChangePct: payload.VariationPct,
		Volume:    payload.Volume,
		Source:    sourceName,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// GetHistory fetches daily closes for a ticker, ascending and deduped
func (c *Client) GetHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	ticker = models.NormalizeTicker(ticker)

	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var payload historyPayload
	endpoint := fmt.Sprintf("/history/%s", url.PathEscape(ticker))
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	series := make(models.PriceSeries, 0, len(payload.Cours))
	for _, p := range payload.Cours {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("date", p.Date).Msg("Skipping point with bad date")
			continue
		}
		close, err := parseAmount(p.Cloture)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("close", p.Cloture).Msg("Skipping point with bad close")
			continue
		}
		series = append(series, models.PricePoint{Date: date.UTC(), Close: close})
	}

	// Provider ordering is not trusted; Merge sorts and dedupes.
	return models.PriceSeries(nil).Merge(series), nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("BRVM request")

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
