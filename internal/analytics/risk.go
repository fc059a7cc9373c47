package analytics

import "tradejournal/internal/domain"

// Thresholds for the risk flags.
const (
	feeDragHealthy  = 15.0
	feeDragCaution  = 30.0
	drawdownHealthy = 10.0
	drawdownCaution = 25.0
	edgeHealthy     = 1.5
	edgeCaution     = 1.0
	overtradeMax    = 2
)

func feeEfficiencyLevel(feeDrag float64) domain.RiskLevel {
	switch {
	case feeDrag < feeDragHealthy:
		return domain.RiskHealthy
	case feeDrag < feeDragCaution:
		return domain.RiskCaution
	default:
		return domain.RiskCritical
	}
}

func drawdownLevel(maxDD float64) domain.RiskLevel {
	switch {
	case maxDD < drawdownHealthy:
		return domain.RiskHealthy
	case maxDD < drawdownCaution:
		return domain.RiskCaution
	default:
		return domain.RiskCritical
	}
}

func edgeStrengthLevel(pf Ratio) domain.RiskLevel {
	switch {
	case float64(pf) > edgeHealthy:
		return domain.RiskHealthy
	case float64(pf) > edgeCaution:
		return domain.RiskCaution
	default:
		return domain.RiskCritical
	}
}

func overtradingLevel(days int) domain.RiskLevel {
	switch {
	case days == 0:
		return domain.RiskHealthy
	case days <= overtradeMax:
		return domain.RiskCaution
	default:
		return domain.RiskCritical
	}
}

func assessRisk(s *Snapshot) RiskFlags {
	return RiskFlags{
		FeeEfficiency: feeEfficiencyLevel(s.FeeDrag),
		Drawdown:      drawdownLevel(s.MaxDrawdown),
		Overtrading:   overtradingLevel(s.OvertradingDays),
		EdgeStrength:  edgeStrengthLevel(s.ProfitFactor),
	}
}
