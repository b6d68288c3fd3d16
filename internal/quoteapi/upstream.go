package quoteapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/market"
	"poolScope/internal/model"
)

// DefaultUpstreamURL is the chart API queried per symbol.
const DefaultUpstreamURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// UpstreamOpts configures an Upstream.
type UpstreamOpts struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Upstream fetches raw chart payloads.
type Upstream struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewUpstream builds an Upstream.
func NewUpstream(o UpstreamOpts) *Upstream {
	if o.BaseURL == "" {
		o.BaseURL = DefaultUpstreamURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Upstream{baseURL: strings.TrimRight(o.BaseURL, "/"), client: client, logger: logger}
}

// UpstreamError reports a non-OK chart response.
type UpstreamError struct {
	Symbol     string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chart %s: status %d", e.Symbol, e.StatusCode)
}

// Chart returns the raw chart body for one symbol.
func (u *Upstream) Chart(ctx context.Context, symbol string) ([]byte, error) {
	endpoint := u.baseURL + "/" + url.PathEscape(symbol) + "?" + url.Values{
		"interval": {"1d"},
		"range":    {"5d"},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chart %s: %w", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Symbol: symbol, StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// Quote fetches and normalizes one symbol.
func (u *Upstream) Quote(ctx context.Context, symbol string) (model.MarketData, error) {
	body, err := u.Chart(ctx, symbol)
	if err != nil {
		return model.MarketData{}, err
	}
	var chart market.ChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.MarketData{}, fmt.Errorf("decode chart %s: %w", symbol, err)
	}
	return market.NormalizeChart(chart)
}
