package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// PnL is the derived profit/loss of a trade, rounded to cents.
type PnL struct {
	Gross float64
	Fee   float64
	Net   float64
}

// DerivePnl computes gross and net PnL for a notional position:
//
//	gross = size * dir * (exit - entry) / entry
//	net   = gross - fee
//
// Gross is 0 when the entry price is not positive or the result overflows. Each figure is rounded to
// two decimals half away from zero; net is rounded from the unrounded inputs.
func DerivePnl(side Side, size, entry, exit, fee float64) PnL {
	var gross float64
	if entry > 0 {
		gross = size * side.Direction() * (exit - entry) / entry
	}
	if !IsFinite(gross) {
		gross = 0
	}
	return PnL{
		Gross: RoundCents(gross),
		Fee:   RoundCents(fee),
		Net:   RoundCents(gross - fee),
	}
}

// RoundCents rounds v to two decimal places. NaN and infinities round to 0.
func RoundCents(v float64) float64 {
	if !IsFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
