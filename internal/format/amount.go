package format

import (
	"math/big"
	"strings"
)

// MaxFractionDigits caps the fraction digits rendered for token amounts.
const MaxFractionDigits = 6

// FormatTokenAmount renders raw / 10^decimals with at most MaxFractionDigits
// fraction digits. Invalid input renders as "0".
func FormatTokenAmount(raw *big.Int, decimals int) string {
	return FormatTokenAmountPrecision(raw, decimals, MaxFractionDigits)
}

// FormatTokenAmountPrecision is FormatTokenAmount with an explicit cap.
func FormatTokenAmountPrecision(raw *big.Int, decimals int, maxFraction int) string {
	if raw == nil || decimals < 0 || raw.Sign() == 0 {
		return "0"
	}
	if maxFraction < 0 {
		maxFraction = 0
	}
	if decimals == 0 {
		return raw.String()
	}

	sign := raw.Sign()
	abs := new(big.Int).Abs(raw)
	rat := new(big.Rat).SetFrac(abs, pow10(decimals))
	text := trimFraction(rat.FloatString(maxFraction))
	if text == "0" {
		return "0"
	}
	if sign < 0 {
		return "-" + text
	}
	return text
}

// ToFloat returns raw scaled down by its decimals.
func ToFloat(raw *big.Int, decimals int) float64 {
	if raw == nil || decimals < 0 {
		return 0
	}
	rat := new(big.Rat).SetFrac(raw, pow10(decimals))
	f, _ := rat.Float64()
	return f
}

// ParseTokenAmount converts a decimal string such as "1.5" into raw units.
func ParseTokenAmount(value string, decimals int) (*big.Int, bool) {
	value = strings.TrimSpace(value)
	if value == "" || decimals < 0 {
		return nil, false
	}
	rat, ok := new(big.Rat).SetString(value)
	if !ok {
		return nil, false
	}
	rat.Mul(rat, new(big.Rat).SetInt(pow10(decimals)))
	if !rat.IsInt() {
		return nil, false
	}
	return new(big.Int).Set(rat.Num()), true
}

func pow10(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

func trimFraction(text string) string {
	if !strings.Contains(text, ".") {
		return text
	}
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}
