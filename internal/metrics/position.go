package metrics

import (
	"poolScope/internal/format"
	"poolScope/internal/model"
)

// UserPositionMetrics are the derived values of a depositor position.
// PnLPercentage and CollateralRatio are percentages.
type UserPositionMetrics struct {
	PositionValue   float64 `json:"positionValue"`
	EntryPrice      float64 `json:"entryPrice"`
	PnLValue        float64 `json:"pnlValue"`
	PnLPercentage   float64 `json:"pnlPercentage"`
	CollateralRatio float64 `json:"collateralRatio"`
}

// CalculateUserPositionMetrics values a position at assetPrice. Amounts are
// scaled by their token decimals first. A nil position yields zero metrics.
func CalculateUserPositionMetrics(pos *model.UserPosition, assetPrice float64, assetDecimals, reserveDecimals uint8, oraclePrice float64) UserPositionMetrics {
	if pos == nil {
		return UserPositionMetrics{}
	}

	assetAmount := format.ToFloat(pos.AssetAmount, int(assetDecimals))
	depositAmount := format.ToFloat(pos.DepositAmount, int(reserveDecimals))
	collateralAmount := format.ToFloat(pos.CollateralAmount, int(reserveDecimals))

	var entryPrice float64
	if assetAmount != 0 {
		entryPrice = depositAmount / assetAmount
	}

	var pnlPercentage float64
	if entryPrice != 0 {
		pnlPercentage = (assetPrice - entryPrice) / entryPrice * 100
	}

	var collateralRatio float64
	if denominator := assetAmount * oraclePrice; denominator != 0 {
		collateralRatio = collateralAmount / denominator * 100
	}

	return UserPositionMetrics{
		PositionValue:   assetAmount * assetPrice,
		EntryPrice:      entryPrice,
		PnLValue:        assetAmount * (assetPrice - entryPrice),
		PnLPercentage:   pnlPercentage,
		CollateralRatio: collateralRatio,
	}
}

// LPMetrics are the scaled figures of an LP card.
type LPMetrics struct {
	Commitment      float64     `json:"commitment"`
	Collateral      float64     `json:"collateral"`
	InterestAccrued float64     `json:"interestAccrued"`
	AssetShare      float64     `json:"assetShare"`
	CollateralRatio float64     `json:"collateralRatio"`
	Health          string      `json:"health"`
	HealthTone      format.Tone `json:"healthTone"`
}

// CalculateLPMetrics scales an LP position by the pool's token decimals.
func CalculateLPMetrics(pos *model.LPPosition, pool *model.Pool) LPMetrics {
	if pos == nil || pool == nil {
		return LPMetrics{Health: model.HealthUnknown.String(), HealthTone: format.ToneNeutral}
	}

	reserveDecimals := int(pool.ReserveToken.Decimals)
	out := LPMetrics{
		Commitment:      format.ToFloat(pos.LiquidityCommitment, reserveDecimals),
		Collateral:      format.ToFloat(pos.CollateralAmount, reserveDecimals),
		InterestAccrued: format.ToFloat(pos.InterestAccrued, reserveDecimals),
		AssetShare:      format.ToFloat(pos.AssetShare, int(pool.AssetToken.Decimals)),
		Health:          pos.LiquidityHealth.String(),
		HealthTone:      HealthTone(pos.LiquidityHealth),
	}
	if out.Commitment != 0 {
		out.CollateralRatio = out.Collateral / out.Commitment * 100
	}
	return out
}

// HealthTone colors an LP health code.
func HealthTone(h model.LiquidityHealth) format.Tone {
	switch h {
	case model.HealthHealthy:
		return format.ToneGreen
	case model.HealthWarning:
		return format.ToneYellow
	case model.HealthLiquidatable:
		return format.ToneRed
	default:
		return format.ToneNeutral
	}
}
