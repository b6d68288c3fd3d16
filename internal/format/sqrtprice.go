package format

import (
	"fmt"
	"math/big"
)

// EncodeSqrtPriceX96 returns floor(sqrt((amount1 << 192) / amount0)).
func EncodeSqrtPriceX96(amount1, amount0 *big.Int) (*big.Int, error) {
	if amount0 == nil || amount0.Sign() <= 0 {
		return nil, fmt.Errorf("amount0 must be positive")
	}
	if amount1 == nil || amount1.Sign() < 0 {
		return nil, fmt.Errorf("amount1 must be non-negative")
	}
	ratio := new(big.Int).Lsh(amount1, 192)
	ratio.Quo(ratio, amount0)
	return ratio.Sqrt(ratio), nil
}
