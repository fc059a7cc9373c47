package analytics

import "math"

// CapitalEfficiency relates PnL and fees to the capital that was put to work.
type CapitalEfficiency struct {
	PnlPerVolume   float64 `json:"pnlPerVolume" yaml:"pnlPerVolume"` // Net PnL per $1000 traded
	GrossFeeRatio  float64 `json:"grossFeeRatio" yaml:"grossFeeRatio"`
	AvgTradeSize   float64 `json:"avgTradeSize" yaml:"avgTradeSize"`
	AvgFeePerTrade float64 `json:"avgFeePerTrade" yaml:"avgFeePerTrade"`
}

// Efficiency derives capital-efficiency figures from a snapshot.
func Efficiency(s *Snapshot) CapitalEfficiency {
	var e CapitalEfficiency
	if s.TotalVolume > 0 {
		e.PnlPerVolume = s.TotalNet / s.TotalVolume * 1000
	}
	if s.TotalFees > 0 {
		e.GrossFeeRatio = s.TotalGross / s.TotalFees
	}
	if s.Total > 0 {
		e.AvgTradeSize = s.TotalVolume / float64(s.Total)
		e.AvgFeePerTrade = s.TotalFees / float64(s.Total)
	}
	return e
}

// RadarAxis is one spoke of the performance radar, scaled to 0..100.
type RadarAxis struct {
	Metric string  `json:"metric" yaml:"metric"`
	Value  float64 `json:"value" yaml:"value"`
	Max    float64 `json:"max" yaml:"max"`
}

// Radar scores the snapshot on five axes, each clamped to 0..100.
func Radar(s *Snapshot) []RadarAxis {
	axis := func(name string, v float64) RadarAxis {
		return RadarAxis{Metric: name, Value: v, Max: 100}
	}
	return []RadarAxis{
		axis("Win Rate", s.WinRate),
		axis("Profit Factor", math.Min(float64(s.ProfitFactor)*20, 100)),
		axis("Consistency", s.Consistency),
		axis("Fee Efficiency", math.Max(0, 100-s.FeeDrag*2)),
		axis("Sharpe", math.Min(math.Max(s.Sharpe, 0)*50, 100)),
	}
}
