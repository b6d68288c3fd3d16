// Package view renders pools and positions into display strings.
package view

import (
	"math/big"
	"time"

	"poolScope/internal/format"
	"poolScope/internal/metrics"
	"poolScope/internal/model"
	"poolScope/internal/pools"
)

// MarketView is a formatted quote.
type MarketView struct {
	Name       string      `json:"name"`
	Price      string      `json:"price"`
	Change     string      `json:"change"`
	ChangeTone format.Tone `json:"changeTone"`
	Volume     string      `json:"volume"`
	Error      string      `json:"error,omitempty"`
}

// PoolRow is one line of the pool listing.
type PoolRow struct {
	Address        string      `json:"address"`
	ChainID        uint64      `json:"chainId"`
	Symbol         string      `json:"symbol"`
	AssetSymbol    string      `json:"assetSymbol"`
	ReserveSymbol  string      `json:"reserveSymbol"`
	Market         MarketView  `json:"market"`
	OraclePrice    string      `json:"oraclePrice"`
	SqrtPriceX96   string      `json:"sqrtPriceX96,omitempty"`
	Cycle          uint64      `json:"cycle"`
	Status         string      `json:"status"`
	StatusTone     format.Tone `json:"statusTone"`
	Rebalance      string      `json:"rebalance"`
	NextActionAt   time.Time   `json:"nextActionAt"`
	Countdown      string      `json:"countdown"`
	TotalLiquidity string      `json:"totalLiquidity"`
	LPCount        uint64      `json:"lpCount"`
	Utilization    string      `json:"utilization"`
	InterestRate   string      `json:"interestRate"`
	AssetSupply    string      `json:"assetSupply"`
}

// LPCard is the liquidity provider panel of a pool.
type LPCard struct {
	Pool            string       `json:"pool"`
	IsLP            bool         `json:"isLP"`
	Commitment      string       `json:"commitment"`
	Collateral      string       `json:"collateral"`
	InterestAccrued string       `json:"interestAccrued"`
	AssetShare      string       `json:"assetShare"`
	CollateralRatio string       `json:"collateralRatio"`
	Health          string       `json:"health"`
	HealthTone      format.Tone  `json:"healthTone"`
	Request         *RequestView `json:"request,omitempty"`
	Blocked         bool         `json:"blocked"`
	BlockMessage    string       `json:"blockMessage,omitempty"`
}

// UserCard is the depositor panel of a pool.
type UserCard struct {
	Pool            string       `json:"pool"`
	HasPosition     bool         `json:"hasPosition"`
	AssetAmount     string       `json:"assetAmount"`
	DepositAmount   string       `json:"depositAmount"`
	Collateral      string       `json:"collateral"`
	PositionValue   string       `json:"positionValue"`
	EntryPrice      string       `json:"entryPrice"`
	PnL             string       `json:"pnl"`
	PnLPercentage   string       `json:"pnlPercentage"`
	PnLTone         format.Tone  `json:"pnlTone"`
	CollateralRatio string       `json:"collateralRatio"`
	Request         *RequestView `json:"request,omitempty"`
	PendingRequest  bool         `json:"pendingRequest"`
}

// RequestView is a formatted LP or depositor request.
type RequestView struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Cycle  uint64 `json:"cycle"`
}

// Market formats a quote.
func Market(md model.MarketData) MarketView {
	return MarketView{
		Name:       md.Name,
		Price:      format.FormatUSD(md.Price),
		Change:     format.FormatPercentage(md.PriceChange),
		ChangeTone: format.ChangeTone(md.PriceChange),
		Volume:     md.Volume,
		Error:      md.Error,
	}
}

// Pool formats a pool for the listing as of now.
func Pool(pool model.Pool, now time.Time) PoolRow {
	rebalance := pools.RebalanceStateOf(pool, now)
	reserveDecimals := int(pool.ReserveToken.Decimals)
	return PoolRow{
		Address:        pool.Address,
		ChainID:        pool.ChainID,
		Symbol:         pool.Symbol,
		AssetSymbol:    pool.AssetToken.Symbol,
		ReserveSymbol:  pool.ReserveToken.Symbol,
		Market:         Market(pool.Market),
		OraclePrice:    format.FormatUSD(format.ToFloat(pool.OraclePrice, model.PriceDecimals)),
		SqrtPriceX96:   oracleSqrtPrice(pool),
		Cycle:          pool.CurrentCycle,
		Status:         string(pool.Status),
		StatusTone:     format.StatusTone(string(pool.Status)),
		Rebalance:      string(rebalance.State),
		NextActionAt:   rebalance.NextActionAt,
		Countdown:      rebalance.Countdown.String(),
		TotalLiquidity: tokenAmount(pool.TotalLPLiquidityCommitted, reserveDecimals, pool.ReserveToken.Symbol),
		LPCount:        pool.LPCount,
		Utilization:    ratio(pool.UtilizationRatio),
		InterestRate:   ratio(pool.InterestRate),
		AssetSupply:    tokenAmount(pool.AssetSupply, int(pool.AssetToken.Decimals), pool.AssetToken.Symbol),
	}
}

// Pools formats a listing.
func Pools(list []model.Pool, now time.Time) []PoolRow {
	rows := make([]PoolRow, 0, len(list))
	for _, pool := range list {
		rows = append(rows, Pool(pool, now))
	}
	return rows
}

// LP formats an LP panel.
func LP(pool model.Pool, data pools.LPData) LPCard {
	card := LPCard{Pool: pool.Address, IsLP: data.IsLP}
	m := metrics.CalculateLPMetrics(data.Position, &pool)
	reserve := pool.ReserveToken.Symbol
	card.Health = m.Health
	card.HealthTone = m.HealthTone
	if data.Position != nil {
		reserveDecimals := int(pool.ReserveToken.Decimals)
		card.Commitment = tokenAmount(data.Position.LiquidityCommitment, reserveDecimals, reserve)
		card.Collateral = tokenAmount(data.Position.CollateralAmount, reserveDecimals, reserve)
		card.InterestAccrued = tokenAmount(data.Position.InterestAccrued, reserveDecimals, reserve)
		card.AssetShare = tokenAmount(data.Position.AssetShare, int(pool.AssetToken.Decimals), pool.AssetToken.Symbol)
		card.CollateralRatio = format.FormatRatio(m.CollateralRatio)
	}
	if data.Request != nil {
		card.Request = &RequestView{
			Type:   string(data.Request.RequestType),
			Amount: tokenAmount(data.Request.RequestAmount, int(pool.ReserveToken.Decimals), reserve),
			Cycle:  data.Request.RequestCycle,
		}
	}
	card.Blocked, card.BlockMessage = metrics.LPRequestBlock(data.Request, pool.CurrentCycle)
	return card
}

// User formats a depositor panel valued at the pool's market price.
func User(pool model.Pool, data pools.UserData) UserCard {
	card := UserCard{Pool: pool.Address, HasPosition: data.HasPosition}
	assetDecimals := pool.AssetToken.Decimals
	reserveDecimals := pool.ReserveToken.Decimals
	oraclePrice := format.ToFloat(pool.OraclePrice, model.PriceDecimals)

	if data.Position != nil {
		m := metrics.CalculateUserPositionMetrics(data.Position, pool.Market.Price, assetDecimals, reserveDecimals, oraclePrice)
		card.AssetAmount = tokenAmount(data.Position.AssetAmount, int(assetDecimals), pool.AssetToken.Symbol)
		card.DepositAmount = tokenAmount(data.Position.DepositAmount, int(reserveDecimals), pool.ReserveToken.Symbol)
		card.Collateral = tokenAmount(data.Position.CollateralAmount, int(reserveDecimals), pool.ReserveToken.Symbol)
		card.PositionValue = format.FormatUSD(m.PositionValue)
		card.EntryPrice = format.FormatUSD(m.EntryPrice)
		card.PnL = format.FormatUSD(m.PnLValue)
		card.PnLPercentage = format.FormatPercentage(m.PnLPercentage)
		card.PnLTone = format.ChangeTone(m.PnLPercentage)
		card.CollateralRatio = format.FormatRatio(m.CollateralRatio)
	}
	if data.Request != nil {
		decimals := int(reserveDecimals)
		if data.Request.RequestType == model.RequestRedeem {
			decimals = int(assetDecimals)
		}
		card.Request = &RequestView{
			Type:   string(data.Request.RequestType),
			Amount: format.FormatTokenAmount(data.Request.Amount, decimals),
			Cycle:  data.Request.RequestCycle,
		}
	}
	card.PendingRequest = metrics.HasPendingRequest(data.Request, pool.CurrentCycle)
	return card
}

// oracleSqrtPrice encodes the oracle price as raw reserve units per raw asset
// unit in Q64.96. Pools without a price have none.
func oracleSqrtPrice(pool model.Pool) string {
	if pool.OraclePrice == nil || pool.OraclePrice.Sign() <= 0 {
		return ""
	}
	amount1 := new(big.Int).Mul(pool.OraclePrice, pow10(int(pool.ReserveToken.Decimals)))
	amount1.Quo(amount1, pow10(model.PriceDecimals))
	sqrt, err := format.EncodeSqrtPriceX96(amount1, pow10(int(pool.AssetToken.Decimals)))
	if err != nil {
		return ""
	}
	return sqrt.String()
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func tokenAmount(raw *big.Int, decimals int, symbol string) string {
	amount := format.FormatTokenAmount(raw, decimals)
	if symbol == "" {
		return amount
	}
	return amount + " " + symbol
}

func ratio(raw *big.Int) string {
	return format.FormatRatio(format.ToFloat(raw, model.RatioDecimals) * 100)
}
