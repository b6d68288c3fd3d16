package format

import (
	"math"
	"math/big"
	"testing"
)

func TestFormatTokenAmount(t *testing.T) {
	cases := []struct {
		raw      string
		decimals int
		want     string
	}{
		{"0", 18, "0"},
		{"1000000000000000000", 18, "1"},
		{"1500000", 6, "1.5"},
		{"123456789", 6, "123.456789"},
		{"1234567891", 7, "123.456789"},
		{"-2500000", 6, "-2.5"},
		{"42", 0, "42"},
		{"1", 18, "0"},
	}

	for _, tc := range cases {
		raw, _ := new(big.Int).SetString(tc.raw, 10)
		if got := FormatTokenAmount(raw, tc.decimals); got != tc.want {
			t.Fatalf("FormatTokenAmount(%s, %d) = %s, want %s", tc.raw, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatTokenAmountInvalid(t *testing.T) {
	if got := FormatTokenAmount(nil, 18); got != "0" {
		t.Fatalf("nil raw: got %s", got)
	}
	if got := FormatTokenAmount(big.NewInt(5), -1); got != "0" {
		t.Fatalf("negative decimals: got %s", got)
	}
}

func TestFormatTokenAmountMatchesScaledValue(t *testing.T) {
	for _, decimals := range []int{0, 2, 6, 8} {
		for _, raw := range []int64{0, 1, 7, 123456, 99999999} {
			text := FormatTokenAmountPrecision(big.NewInt(raw), decimals, decimals)
			got, ok := new(big.Rat).SetString(text)
			if !ok {
				t.Fatalf("unparseable output %q", text)
			}
			want := new(big.Rat).SetFrac(big.NewInt(raw), pow10(decimals))
			if got.Cmp(want) != 0 {
				t.Fatalf("raw=%d decimals=%d: got %s want %s", raw, decimals, got.FloatString(decimals), want.FloatString(decimals))
			}
		}
	}
}

func TestParseTokenAmount(t *testing.T) {
	raw, ok := ParseTokenAmount("1.25", 6)
	if !ok || raw.String() != "1250000" {
		t.Fatalf("unexpected parse: %v %v", raw, ok)
	}
	if _, ok := ParseTokenAmount("0.0000001", 6); ok {
		t.Fatalf("expected too-precise amount to fail")
	}
	if _, ok := ParseTokenAmount("abc", 6); ok {
		t.Fatalf("expected garbage to fail")
	}
}

func TestFormatCompact(t *testing.T) {
	cases := map[float64]string{
		0:             "0",
		950:           "950",
		1250:          "1.25K",
		1000000:       "1M",
		2345678:       "2.35M",
		1500000000:    "1.5B",
		-2500:         "-2.5K",
		math.NaN():    "0",
		math.Inf(1):   "0",
	}
	for input, want := range cases {
		if got := FormatCompact(input); got != want {
			t.Fatalf("FormatCompact(%v) = %s, want %s", input, got, want)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.18, "+1.18%"},
		{-10, "-10.00%"},
		{0, "0%"},
		{math.Inf(1), FallbackText},
		{math.NaN(), FallbackText},
	}
	for _, tc := range cases {
		if got := FormatPercentage(tc.in); got != tc.want {
			t.Fatalf("FormatPercentage(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(1234567.891); got != "$1,234,567.89" {
		t.Fatalf("got %s", got)
	}
	if got := FormatUSD(-12.5); got != "-$12.50" {
		t.Fatalf("got %s", got)
	}
	if got := FormatUSD(math.NaN()); got != FallbackText {
		t.Fatalf("got %s", got)
	}
}

func TestFormatRatio(t *testing.T) {
	if got := FormatRatio(50); got != "50.00%" {
		t.Fatalf("got %s", got)
	}
	if got := FormatRatio(math.Inf(1)); got != FallbackText {
		t.Fatalf("got %s", got)
	}
}

func TestPriceChange(t *testing.T) {
	if got := PriceChange(150.25, 148.50); got != 1.18 {
		t.Fatalf("got %v", got)
	}
	if got := PriceChange(200, 190); got != 5.26 {
		t.Fatalf("got %v", got)
	}
	if got := PriceChange(90, 100); got != -10 {
		t.Fatalf("got %v", got)
	}
	if got := PriceChange(10, 0); IsUsable(got) {
		t.Fatalf("expected unusable change, got %v", got)
	}
	if got := PriceChange(0, 0); IsUsable(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestTones(t *testing.T) {
	if ChangeTone(0) != ToneGreen || ChangeTone(-0.01) != ToneRed || ChangeTone(math.NaN()) != ToneNeutral {
		t.Fatalf("change tone mismatch")
	}
	if StatusTone("REBALANCING OFFCHAIN") != ToneYellow || StatusTone("HALTED") != ToneRed {
		t.Fatalf("status tone mismatch")
	}
}

func TestEncodeSqrtPriceX96(t *testing.T) {
	got, err := EncodeSqrtPriceX96(big.NewInt(1), big.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "79228162514264337593543950336" {
		t.Fatalf("1:1 mismatch: %s", got)
	}

	got, err = EncodeSqrtPriceX96(big.NewInt(100), big.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "792281625142643375935439503360" {
		t.Fatalf("100:1 mismatch: %s", got)
	}
	squared := new(big.Int).Mul(got, got)
	if back := squared.Rsh(squared, 192); back.Int64() != 100 {
		t.Fatalf("squared price mismatch: %s", back)
	}

	if _, err := EncodeSqrtPriceX96(big.NewInt(1), big.NewInt(0)); err == nil {
		t.Fatalf("expected error for zero amount0")
	}
}
