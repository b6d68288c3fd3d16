package model

import (
	"math/big"
	"strings"
	"time"
)

// PoolRecord is the raw subgraph pool shape. Integers are string-encoded.
type PoolRecord struct {
	ID                       string      `json:"id"`
	ChainID                  string      `json:"chainId"`
	AssetToken               TokenRecord `json:"assetToken"`
	ReserveToken             TokenRecord `json:"reserveToken"`
	Oracle                   string      `json:"oracle"`
	LiquidityManager         string      `json:"liquidityManager"`
	CycleManager             string      `json:"cycleManager"`
	PoolStrategy             string      `json:"poolStrategy"`
	OraclePrice              string      `json:"oraclePrice"`
	CurrentCycle             string      `json:"currentCycle"`
	CycleState               Scalar      `json:"cycleState"`
	LastCycleActionDateTime  string      `json:"lastCycleActionDateTime"`
	RebalanceLength          string      `json:"rebalanceLength"`
	TotalLPLiquidityCommited string      `json:"totalLPLiquidityCommited"`
	LPCount                  string      `json:"lpCount"`
	PoolUtilizationRatio     string      `json:"poolUtilizationRatio"`
	PoolInterestRate         string      `json:"poolInterestRate"`
	AssetSupply              string      `json:"assetSupply"`
	IsVerified               bool        `json:"isVerified"`
	CreatedAt                string      `json:"createdAt"`
}

// Pool is an asset-backed liquidity pool.
//
// Monetary fields are raw integers. TotalLPLiquidityCommitted is in reserve
// token decimals, AssetSupply in asset token decimals, OraclePrice in
// PriceDecimals, UtilizationRatio and InterestRate in RatioDecimals.
type Pool struct {
	Address          string
	ChainID          uint64
	Oracle           string
	LiquidityManager string
	CycleManager     string
	Strategy         string

	AssetToken   Token
	ReserveToken Token

	// Symbol is the market ticker derived from the asset token symbol.
	Symbol string
	Market MarketData

	OraclePrice       *big.Int
	CurrentCycle      uint64
	CycleState        CycleState
	Status            PoolStatus
	LastCycleActionAt time.Time
	RebalanceLength   time.Duration

	TotalLPLiquidityCommitted *big.Int
	LPCount                   uint64
	UtilizationRatio          *big.Int
	InterestRate              *big.Int
	AssetSupply               *big.Int

	Verified  bool
	CreatedAt time.Time
}

// Decode validates the record into a Pool. Market data is attached later.
func (r PoolRecord) Decode() (Pool, error) {
	asset, err := r.AssetToken.Decode("assetToken")
	if err != nil {
		return Pool{}, err
	}
	reserve, err := r.ReserveToken.Decode("reserveToken")
	if err != nil {
		return Pool{}, err
	}

	d := decoder{entity: "pool", id: r.ID}
	state, stateErr := ParseCycleState(string(r.CycleState))
	if stateErr != nil {
		d.fail("cycleState", string(r.CycleState), stateErr)
	}

	pool := Pool{
		Address:                   strings.ToLower(r.ID),
		ChainID:                   d.uint64Field("chainId", r.ChainID),
		Oracle:                    r.Oracle,
		LiquidityManager:          r.LiquidityManager,
		CycleManager:              r.CycleManager,
		Strategy:                  r.PoolStrategy,
		AssetToken:                asset,
		ReserveToken:              reserve,
		OraclePrice:               d.bigInt("oraclePrice", r.OraclePrice),
		CurrentCycle:              d.uint64Field("currentCycle", r.CurrentCycle),
		CycleState:                state,
		Status:                    state.Status(),
		LastCycleActionAt:         d.unixTime("lastCycleActionDateTime", r.LastCycleActionDateTime),
		RebalanceLength:           d.seconds("rebalanceLength", r.RebalanceLength),
		TotalLPLiquidityCommitted: d.bigInt("totalLPLiquidityCommited", r.TotalLPLiquidityCommited),
		LPCount:                   d.uint64Field("lpCount", r.LPCount),
		UtilizationRatio:          d.bigInt("poolUtilizationRatio", r.PoolUtilizationRatio),
		InterestRate:              d.bigInt("poolInterestRate", r.PoolInterestRate),
		AssetSupply:               d.bigInt("assetSupply", r.AssetSupply),
		Verified:                  r.IsVerified,
		CreatedAt:                 d.unixTime("createdAt", r.CreatedAt),
	}
	if err := d.err(); err != nil {
		return Pool{}, err
	}
	return pool, nil
}
