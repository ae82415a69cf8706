package ticker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/metrics"
	"github.com/AIS170/SENG3011-OMEGA/pkg/circuitbreaker"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
	"github.com/AIS170/SENG3011-OMEGA/pkg/retry"
)

// ErrTickerNotFound: the search API returned no usable symbol.
var ErrTickerNotFound = errors.New("no ticker found")

// Client resolves free-text company names to ticker symbols via the
// Yahoo finance search API. External collaborator: calls are retried
// with backoff and guarded by a circuit breaker, unlike the retrieval
// core which never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	cfg := retry.DefaultConfig()
	cfg.Logger = logger.L()

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: circuitbreaker.New("ticker-search", circuitbreaker.Config{
			Logger: logger.L(),
		}),
		retryCfg: cfg,
	}
}

// Resolve returns the first Yahoo-listed symbol matching the company
// name, or ErrTickerNotFound.
func (c *Client) Resolve(ctx context.Context, company string) (string, error) {
	var symbol string

	op := func() error {
		return c.breaker.Execute(ctx, func() error {
			s, err := c.search(ctx, company)
			if err != nil {
				return err
			}
			symbol = s
			return nil
		})
	}

	if err := retry.Do(ctx, c.retryCfg, op); err != nil {
		metrics.TickerLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("ticker search failed: %w", err)
	}

	if symbol == "" {
		metrics.TickerLookups.WithLabelValues("miss").Inc()
		return "", fmt.Errorf("%w for %q", ErrTickerNotFound, company)
	}

	metrics.TickerLookups.WithLabelValues("ok").Inc()
	logger.Debug("Ticker resolved", zap.String("company", company), zap.String("symbol", symbol))
	return symbol, nil
}

func (c *Client) search(ctx context.Context, company string) (string, error) {
	searchURL := fmt.Sprintf("%s/v1/finance/search?q=%s", c.baseURL, url.QueryEscape(company))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var searchResp struct {
		Quotes []struct {
			Symbol         string `json:"symbol"`
			IsYahooFinance bool   `json:"isYahooFinance"`
		} `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	for _, q := range searchResp.Quotes {
		if q.IsYahooFinance && q.Symbol != "" {
			return q.Symbol, nil
		}
	}
	return "", nil
}
