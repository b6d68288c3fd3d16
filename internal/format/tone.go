package format

// Tone is the color class a presenter applies to a value.
type Tone string

const (
	ToneGreen   Tone = "green"
	ToneRed     Tone = "red"
	ToneYellow  Tone = "yellow"
	ToneNeutral Tone = "neutral"
)

// ChangeTone classifies a percentage change.
func ChangeTone(n float64) Tone {
	if !IsUsable(n) {
		return ToneNeutral
	}
	if n >= 0 {
		return ToneGreen
	}
	return ToneRed
}

// StatusTone classifies a pool status label. Rebalancing states are pending.
func StatusTone(status string) Tone {
	switch status {
	case "ACTIVE":
		return ToneGreen
	case "REBALANCING OFFCHAIN", "REBALANCING ONCHAIN":
		return ToneYellow
	case "HALTED":
		return ToneRed
	default:
		return ToneNeutral
	}
}
