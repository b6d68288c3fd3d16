package market

import (
	"fmt"

	"poolScope/internal/format"
	"poolScope/internal/model"
)

// ChartResponse is the upstream chart payload returned for a single symbol.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartResult is one entry of chart.result.
type ChartResult struct {
	Meta       *ChartMeta      `json:"meta"`
	Indicators ChartIndicators `json:"indicators"`
}

// ChartMeta carries the quote fields of a chart result.
type ChartMeta struct {
	Symbol             string   `json:"symbol"`
	ShortName          string   `json:"shortName"`
	LongName           string   `json:"longName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"previousClose"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
}

// ChartIndicators holds per-interval series. Volume samples may be null.
type ChartIndicators struct {
	Quote []struct {
		Volume []*float64 `json:"volume"`
	} `json:"quote"`
}

// ChartError is the upstream error object.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NormalizeChart converts a chart payload into MarketData.
func NormalizeChart(resp ChartResponse) (model.MarketData, error) {
	if resp.Chart.Error != nil {
		return model.MarketData{}, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return model.MarketData{}, fmt.Errorf("chart result is empty")
	}
	result := resp.Chart.Result[0]
	if result.Meta == nil {
		return model.MarketData{}, fmt.Errorf("chart meta is missing")
	}
	meta := result.Meta
	if meta.RegularMarketPrice == nil {
		return model.MarketData{}, fmt.Errorf("regularMarketPrice is missing")
	}

	price := *meta.RegularMarketPrice
	// a missing or zero previousClose falls back to chartPreviousClose
	var previous float64
	if meta.PreviousClose != nil {
		previous = *meta.PreviousClose
	}
	if previous == 0 && meta.ChartPreviousClose != nil {
		previous = *meta.ChartPreviousClose
	}

	return model.MarketData{
		Name:        meta.ShortName,
		Price:       price,
		PriceChange: format.PriceChange(price, previous),
		Volume:      format.FormatCompact(lastVolume(result.Indicators)),
	}, nil
}

func lastVolume(ind ChartIndicators) float64 {
	if len(ind.Quote) == 0 {
		return 0
	}
	volumes := ind.Quote[0].Volume
	if len(volumes) == 0 || volumes[len(volumes)-1] == nil {
		return 0
	}
	return *volumes[len(volumes)-1]
}
