package quoteapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolScope/internal/market"
	"poolScope/internal/model"
)

var charts = map[string]string{
	"TSLA": `{"chart":{"result":[{"meta":{"shortName":"Tesla","regularMarketPrice":200,"previousClose":190},"indicators":{"quote":[{"volume":[1000000]}]}}],"error":null}}`,
	"AAPL": `{"chart":{"result":[{"meta":{"shortName":"Apple Inc.","regularMarketPrice":150.25,"previousClose":148.5},"indicators":{"quote":[{"volume":[1500000000]}]}}],"error":null}}`,
}

func newUpstream(t *testing.T) (*Upstream, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		body, ok := charts[symbol]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found"}}}`))
			return
		}
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewUpstream(UpstreamOpts{BaseURL: server.URL}), &calls
}

func newQuoteServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	upstream, calls := newUpstream(t)
	api := httptest.NewServer(NewServer(upstream, ":0", nil).Handler())
	t.Cleanup(api.Close)
	return api, calls
}

func TestSingleSymbolPassesChartThrough(t *testing.T) {
	api, _ := newQuoteServer(t)

	resp, err := http.Get(api.URL + market.QuotePath + "?symbols=TSLA")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var chart market.ChartResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chart))
	require.Len(t, chart.Chart.Result, 1)
	assert.Equal(t, "Tesla", chart.Chart.Result[0].Meta.ShortName)
}

func TestSingleSymbolUpstreamStatus(t *testing.T) {
	api, _ := newQuoteServer(t)

	resp, err := http.Get(api.URL + market.QuotePath + "?symbols=NOPE")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManySymbolsNormalized(t *testing.T) {
	api, calls := newQuoteServer(t)

	resp, err := http.Get(api.URL + market.QuotePath + "?symbols=TSLA,AAPL,NOPE,TSLA")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]model.MarketData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, 5.26, got["TSLA"].PriceChange)
	assert.Equal(t, "1.5B", got["AAPL"].Volume)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestManySymbolsAllFailing(t *testing.T) {
	api, _ := newQuoteServer(t)

	resp, err := http.Get(api.URL + market.QuotePath + "?symbols=NOPE,ALSO")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestNoSymbolsReturnsEmptyMap(t *testing.T) {
	api, calls := newQuoteServer(t)

	resp, err := http.Get(api.URL + market.QuotePath + "?symbols=")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]model.MarketData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestHealth(t *testing.T) {
	api, _ := newQuoteServer(t)

	resp, err := http.Get(api.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFetcherAgainstServer(t *testing.T) {
	api, _ := newQuoteServer(t)
	fetcher := market.NewFetcher(market.Opts{BaseURL: api.URL})
	ctx := context.Background()

	single := fetcher.FetchMarketData(ctx, "AAPL")
	assert.Empty(t, single.Error)
	assert.Equal(t, 1.18, single.PriceChange)
	assert.Equal(t, "1.5B", single.Volume)

	batch, err := fetcher.FetchBatchMarketData(ctx, []string{"TSLA", "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "Tesla", batch["TSLA"].Name)

	one, err := fetcher.FetchBatchMarketData(ctx, []string{"TSLA"})
	require.NoError(t, err)
	assert.Equal(t, 200.0, one["TSLA"].Price)

	failed := fetcher.FetchMarketData(ctx, "NOPE")
	assert.Equal(t, market.ErrorMarketData(), failed)
}
