package format

import (
	"math"
	"strconv"
	"strings"
)

// FallbackText is shown in place of a number that cannot be displayed.
const FallbackText = "N/A"

type compactUnit struct {
	threshold float64
	suffix    string
}

var compactUnits = []compactUnit{
	{threshold: 1e9, suffix: "B"},
	{threshold: 1e6, suffix: "M"},
	{threshold: 1e3, suffix: "K"},
}

// FormatCompact renders n with a K/M/B suffix and at most two fraction digits.
func FormatCompact(n float64) string {
	if n == 0 || !IsUsable(n) {
		return "0"
	}

	abs := math.Abs(n)
	sign := ""
	if n < 0 {
		sign = "-"
	}
	for _, unit := range compactUnits {
		if abs >= unit.threshold {
			return sign + trimFraction(strconv.FormatFloat(abs/unit.threshold, 'f', 2, 64)) + unit.suffix
		}
	}
	return sign + trimFraction(strconv.FormatFloat(abs, 'f', 2, 64))
}

// FormatPercentage renders n with two decimals and an explicit sign for positives.
func FormatPercentage(n float64) string {
	if !IsUsable(n) {
		return FallbackText
	}
	if n == 0 {
		return "0%"
	}
	text := strconv.FormatFloat(n, 'f', 2, 64) + "%"
	if n > 0 {
		return "+" + text
	}
	return text
}

// FormatUSD renders a price with two decimals and thousands separators.
func FormatUSD(n float64) string {
	if !IsUsable(n) {
		return FallbackText
	}
	text := strconv.FormatFloat(math.Abs(n), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(text, ".")

	var b strings.Builder
	if n < 0 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// PriceChange returns the percentage move from previous to price rounded to
// two decimals. A zero previous value yields Inf or NaN.
func PriceChange(price, previous float64) float64 {
	change := (price - previous) / previous * 100
	return math.Round(change*100) / 100
}

// IsUsable reports whether n is a finite number.
func IsUsable(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// FormatRatio renders n as an unsigned two-decimal percentage.
func FormatRatio(n float64) string {
	if !IsUsable(n) {
		return FallbackText
	}
	return strconv.FormatFloat(n, 'f', 2, 64) + "%"
}
