package view

import (
	"errors"
	"fmt"
	"math/big"

	"poolScope/internal/format"
	"poolScope/internal/metrics"
	"poolScope/internal/model"
	"poolScope/internal/pools"
)

// ErrInvalidAmount is returned for amounts that are not positive or carry
// more fractional digits than the token has decimals.
var ErrInvalidAmount = errors.New("invalid amount")

// RequestPreview checks a prospective request against the wallet balance and
// the pool's request policy.
type RequestPreview struct {
	Amount         string `json:"amount"`
	Raw            string `json:"raw"`
	Balance        string `json:"balance,omitempty"`
	ExceedsBalance bool   `json:"exceedsBalance"`
	Blocked        bool   `json:"blocked"`
	Message        string `json:"message,omitempty"`
}

// PreviewLPRequest previews an LP liquidity request of amount reserve tokens.
// balance may be nil when the wallet was not read.
func PreviewLPRequest(pool model.Pool, data pools.LPData, amount string, balance *big.Int) (RequestPreview, error) {
	preview, err := previewAmount(pool.ReserveToken, amount, balance)
	if err != nil {
		return RequestPreview{}, err
	}
	preview.Blocked, preview.Message = metrics.LPRequestBlock(data.Request, pool.CurrentCycle)
	return preview, nil
}

// PreviewUserRequest previews a deposit of amount reserve tokens.
func PreviewUserRequest(pool model.Pool, data pools.UserData, amount string, balance *big.Int) (RequestPreview, error) {
	preview, err := previewAmount(pool.ReserveToken, amount, balance)
	if err != nil {
		return RequestPreview{}, err
	}
	if metrics.HasPendingRequest(data.Request, pool.CurrentCycle) {
		preview.Blocked = true
		preview.Message = metrics.ActiveRequestMessage
	}
	return preview, nil
}

func previewAmount(token model.Token, amount string, balance *big.Int) (RequestPreview, error) {
	raw, ok := format.ParseTokenAmount(amount, int(token.Decimals))
	if !ok || raw.Sign() <= 0 {
		return RequestPreview{}, fmt.Errorf("%w: %q for %d decimals", ErrInvalidAmount, amount, token.Decimals)
	}
	preview := RequestPreview{
		Amount: tokenAmount(raw, int(token.Decimals), token.Symbol),
		Raw:    raw.String(),
	}
	if balance != nil {
		preview.Balance = tokenAmount(balance, int(token.Decimals), token.Symbol)
		preview.ExceedsBalance = raw.Cmp(balance) > 0
	}
	return preview, nil
}
