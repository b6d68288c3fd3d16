package model

import (
	"encoding/json"
	"math"
)

// MarketData is a quote snapshot for one ticker.
type MarketData struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	PriceChange float64 `json:"priceChange"`
	Volume      string  `json:"volume"`
	Error       string  `json:"error,omitempty"`
}

type marketDataJSON struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	PriceChange *float64 `json:"priceChange"`
	Volume      string   `json:"volume"`
	Error       string   `json:"error,omitempty"`
}

// MarshalJSON encodes an infinite or NaN price change as null.
func (m MarketData) MarshalJSON() ([]byte, error) {
	out := marketDataJSON{Name: m.Name, Price: m.Price, Volume: m.Volume, Error: m.Error}
	if !math.IsNaN(m.PriceChange) && !math.IsInf(m.PriceChange, 0) {
		change := m.PriceChange
		out.PriceChange = &change
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null price change as NaN.
func (m *MarketData) UnmarshalJSON(data []byte) error {
	var in marketDataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = MarketData{Name: in.Name, Price: in.Price, Volume: in.Volume, Error: in.Error, PriceChange: math.NaN()}
	if in.PriceChange != nil {
		m.PriceChange = *in.PriceChange
	}
	return nil
}
