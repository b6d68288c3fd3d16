package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/model"
)

// QuotePath is the quote route relative to the base URL.
const QuotePath = "/api/yahoo-finance"

// FetchErrorMessage is the error annotation of a failed single-symbol fetch.
const FetchErrorMessage = "Failed to fetch market data"

// ErrBatchFetch is returned when the batch endpoint answers with a non-OK status.
var ErrBatchFetch = errors.New("Failed to fetch batch market data")

// Opts configures a Fetcher.
type Opts struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Fetcher reads quotes from the quote endpoint.
type Fetcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewFetcher builds a Fetcher.
func NewFetcher(o Opts) *Fetcher {
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
	return &Fetcher{
		baseURL: strings.TrimRight(o.BaseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// ErrorMarketData is the uniform result of a failed single-symbol fetch.
func ErrorMarketData() model.MarketData {
	return model.MarketData{Volume: "0", Error: FetchErrorMessage}
}

// FetchMarketData fetches one symbol. Failures are logged and reported through
// the Error field, never returned.
func (f *Fetcher) FetchMarketData(ctx context.Context, symbol string) model.MarketData {
	data, err := f.fetchChart(ctx, symbol)
	if err != nil {
		f.logger.Error("fetch market data", zap.String("symbol", symbol), zap.Error(err))
		return ErrorMarketData()
	}
	return data
}

func (f *Fetcher) fetchChart(ctx context.Context, symbol string) (model.MarketData, error) {
	resp, err := f.get(ctx, symbol)
	if err != nil {
		return model.MarketData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.MarketData{}, fmt.Errorf("quote status %d", resp.StatusCode)
	}

	var chart ChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return model.MarketData{}, fmt.Errorf("decode chart: %w", err)
	}
	return NormalizeChart(chart)
}

// FetchBatchMarketData fetches several symbols in one request. Non-OK
// responses return ErrBatchFetch and transport errors are returned as is.
func (f *Fetcher) FetchBatchMarketData(ctx context.Context, symbols []string) (map[string]model.MarketData, error) {
	resp, err := f.get(ctx, strings.Join(symbols, ","))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrBatchFetch
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeBatch(body, symbols)
}

// decodeBatch accepts the normalized map, and also the raw chart shape that
// the endpoint returns when exactly one symbol is requested.
func decodeBatch(body []byte, symbols []string) (map[string]model.MarketData, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode batch market data: %w", err)
	}

	if _, ok := probe["chart"]; ok && len(symbols) == 1 {
		var chart ChartResponse
		if err := json.Unmarshal(body, &chart); err != nil {
			return nil, fmt.Errorf("decode chart: %w", err)
		}
		data, err := NormalizeChart(chart)
		if err != nil {
			return nil, err
		}
		return map[string]model.MarketData{symbols[0]: data}, nil
	}

	out := make(map[string]model.MarketData, len(probe))
	for symbol, raw := range probe {
		var data model.MarketData
		if err := json.Unmarshal(bytes.TrimSpace(raw), &data); err != nil {
			return nil, fmt.Errorf("decode market data %s: %w", symbol, err)
		}
		out[symbol] = data
	}
	return out, nil
}

func (f *Fetcher) get(ctx context.Context, symbols string) (*http.Response, error) {
	query := url.Values{"symbols": []string{symbols}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+QuotePath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return f.client.Do(req)
}
