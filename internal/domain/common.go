package domain

// Side represents the direction of a trade (LONG or SHORT).
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Valid reports whether the side is one of the two known directions.
func (s Side) Valid() bool {
	return s == Long || s == Short
}

// Direction returns +1 for LONG and -1 for anything else.
// Unknown sides are priced like shorts, matching how the engine buckets them.
func (s Side) Direction() float64 {
	if s == Long {
		return 1
	}
	return -1
}

// OrderType is an open enum: the known values below are suggestions only.
type OrderType string

const (
	OrderMarket     OrderType = "MARKET"
	OrderLimit      OrderType = "LIMIT"
	OrderStopLoss   OrderType = "STOP-LOSS"
	OrderTakeProfit OrderType = "TAKE-PROFIT"
)

// Suggested values offered by the editor. None of these lists is enforced on write.
var (
	Markets = []string{
		"SOL-PERP", "BTC-PERP", "ETH-PERP", "JTO-PERP", "JUP-PERP", "BONK-PERP", "WIF-PERP",
	}
	OrderTypes = []OrderType{OrderMarket, OrderLimit, OrderStopLoss, OrderTakeProfit}
	Strategies = []string{
		"Breakout", "Mean Reversion", "Momentum", "Scalping", "Swing", "Arbitrage",
	}
	Emotions = []string{
		"Confident", "Cautious", "FOMO", "Revenge", "Calm", "Greedy", "Fearful",
	}
)

// IsKnownOrderType reports whether t is one of the suggested order types.
func IsKnownOrderType(t OrderType) bool {
	for _, known := range OrderTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RiskLevel is the tri-state health indicator used by the dashboard risk flags.
type RiskLevel string

const (
	RiskHealthy  RiskLevel = "healthy"
	RiskCaution  RiskLevel = "caution"
	RiskCritical RiskLevel = "critical"
)
