// Package format renders analytics values for display.
package format

import (
	"fmt"
	"math"
)

// Tone classifies a value for colouring: gains, losses or flat.
type Tone string

const (
	Positive Tone = "positive"
	Negative Tone = "negative"
	Neutral  Tone = "neutral"
)

// Placeholder is shown for durations that cannot be measured.
const Placeholder = "—"

// Pnl renders a dollar amount as "+$12.50". Negative values show only their
// magnitude; their sign is conveyed by Tone.
func Pnl(v float64) string {
	if math.IsNaN(v) {
		return "$0.00"
	}
	prefix := ""
	if v >= 0 {
		prefix = "+"
	}
	return fmt.Sprintf("%s$%.2f", prefix, math.Abs(v))
}

// SignedPnl is Pnl with an explicit "-" for losses, for plain-text output.
func SignedPnl(v float64) string {
	if !math.IsNaN(v) && v < 0 {
		return "-" + Pnl(v)
	}
	return Pnl(v)
}

// Percent renders v with one decimal and a percent sign.
func Percent(v float64) string {
	if math.IsNaN(v) {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// Ratio renders v with two decimals, or ∞ when unbounded.
func Ratio(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsNaN(v):
		return "0.00"
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// Duration renders milliseconds as "45m", "3h 20m" or "2d 5h".
func Duration(ms float64) string {
	if math.IsNaN(ms) || ms <= 0 {
		return Placeholder
	}
	mins := int64(math.Floor(ms / 60000))
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	hrs := mins / 60
	if hrs < 24 {
		return fmt.Sprintf("%dh %dm", hrs, mins%60)
	}
	return fmt.Sprintf("%dd %dh", hrs/24, hrs%24)
}

// ToneOf classifies v by sign.
func ToneOf(v float64) Tone {
	switch {
	case v > 0:
		return Positive
	case v < 0:
		return Negative
	default:
		return Neutral
	}
}
