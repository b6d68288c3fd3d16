package model

import "time"

// PoolSnapshot is a point-in-time pool reading for storage.
type PoolSnapshot struct {
	ChainID          uint64    `json:"chain_id"`
	PoolAddress      string    `json:"pool_address"`
	Symbol           string    `json:"symbol"`
	TakenAt          time.Time `json:"taken_at"`
	MarketPrice      float64   `json:"market_price"`
	PriceChange      *float64  `json:"price_change"`
	OraclePrice      string    `json:"oracle_price"`
	CurrentCycle     uint64    `json:"current_cycle"`
	Status           string    `json:"status"`
	TotalLPLiquidity string    `json:"total_lp_liquidity"`
	LPCount          uint64    `json:"lp_count"`
	UtilizationRatio string    `json:"utilization_ratio"`
	InterestRate     string    `json:"interest_rate"`
	MarketError      string    `json:"market_error,omitempty"`
}
