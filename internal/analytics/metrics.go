package analytics

import (
	"math"
	"sort"
	"time"

	"tradejournal/internal/domain"
)

const tradingDaysPerYear = 252

// ComputeMetrics derives the full snapshot from trades in one pass over a copy
// sorted by entry time. Trades whose entryTs is missing or unparsable sort
// before all others and keep their relative order. The input is not modified
// and stored PnL values are taken as authoritative.
func ComputeMetrics(trades []domain.Trade) *Snapshot {
	if len(trades) == 0 {
		return EmptySnapshot()
	}

	sorted := sortByEntry(trades)
	m := EmptySnapshot()
	m.Total = len(sorted)
	m.CumPnlSeries = make([]EquityPoint, 0, len(sorted))
	for _, b := range LeverageBuckets {
		m.LeverageBuckets[b] = BucketStats{}
	}

	var (
		sumWins, sumLosses   float64
		winPnls, lossPnls    []float64
		durations            []float64
		cum                  float64
		streakWin, streakLos int
	)

	for _, t := range sorted {
		net := finite(t.NetPnl)
		gross := finite(t.GrossPnl)
		fee := finite(t.Fee)
		size := finite(t.Size)

		m.TotalGross += gross
		m.TotalFees += fee
		m.TotalNet += net
		m.TotalVolume += size
		cum += net
		m.CumPnlSeries = append(m.CumPnlSeries, EquityPoint{Date: t.EntryTs, Pnl: cum, TradeID: t.ID})

		switch {
		case net > 0:
			sumWins += net
			winPnls = append(winPnls, net)
		case net < 0:
			sumLosses += math.Abs(net)
			lossPnls = append(lossPnls, net)
		}
		// Break-even counts as a win for the totals and streaks.
		if net >= 0 {
			m.Wins++
			streakWin++
			streakLos = 0
		} else {
			m.Losses++
			streakLos++
			streakWin = 0
		}
		m.MaxConsecutiveWins = max(m.MaxConsecutiveWins, streakWin)
		m.MaxConsecutiveLosses = max(m.MaxConsecutiveLosses, streakLos)

		if t.Side == domain.Long {
			m.LongPnl += net
			m.LongCount++
		} else {
			m.ShortPnl += net
			m.ShortCount++
		}

		if d, ok := durationMillis(t.EntryTs, t.ExitTs); ok {
			durations = append(durations, d)
		}

		addGroup(m.SymbolMap, t.Symbol, net, fee, size)
		if t.Strategy != "" {
			addGroup(m.StrategyMap, t.Strategy, net, fee, size)
		}
		if t.Emotion != "" {
			addGroup(m.EmotionMap, t.Emotion, net, fee, size)
		}
		if t.OrderType != "" {
			addGroup(m.OrderTypeMap, string(t.OrderType), net, fee, size)
		}
		addBucket(m.DailyPnlMap, domain.DayKey(t.EntryTs), net)
		addBucket(m.MonthlyPnlMap, domain.MonthKey(t.EntryTs), net)
		addBucket(m.LeverageBuckets, leverageBucket(t.EffectiveLeverage()), net)
	}

	total := float64(m.Total)
	m.WinRate = float64(m.Wins) / total * 100
	m.ProfitFactor = profitFactor(sumWins, sumLosses)
	m.AvgWin = mean(winPnls)
	m.AvgLoss = mean(lossPnls)
	m.AvgDuration = mean(durations)
	if m.TotalGross != 0 {
		m.FeeDrag = m.TotalFees / math.Abs(m.TotalGross) * 100
	}
	m.Expectancy = m.WinRate/100*m.AvgWin + (1-m.WinRate/100)*m.AvgLoss

	days := sortedBuckets(m.DailyPnlMap)
	dailyPnls := make([]float64, len(days))
	dailyCounts := make([]float64, len(days))
	winningDays := 0
	for i, d := range days {
		dailyPnls[i] = d.Pnl
		dailyCounts[i] = float64(d.Count)
		if d.Pnl > 0 {
			winningDays++
		}
	}
	m.Sharpe = sharpe(dailyPnls)
	m.MaxDrawdown = maxDrawdown(m.CumPnlSeries)
	m.AvgDailyTrades = mean(dailyCounts)
	for _, c := range dailyCounts {
		if c > m.AvgDailyTrades*2 {
			m.OvertradingDays++
		}
	}
	if len(days) > 0 {
		m.Consistency = float64(winningDays) / float64(len(days)) * 100
	}
	m.RiskAlerts = assessRisk(m)

	return m
}

// sortByEntry returns a stable-sorted copy. Invalid timestamps come first.
func sortByEntry(trades []domain.Trade) []domain.Trade {
	type keyed struct {
		t     domain.Trade
		at    time.Time
		valid bool
	}
	ks := make([]keyed, len(trades))
	for i, t := range trades {
		at, ok := domain.ParseTimestamp(t.EntryTs)
		ks[i] = keyed{t: t, at: at, valid: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.valid != b.valid {
			return !a.valid
		}
		return a.valid && a.at.Before(b.at)
	})
	out := make([]domain.Trade, len(ks))
	for i, k := range ks {
		out[i] = k.t
	}
	return out
}

func addGroup(m map[string]GroupStats, key string, net, fee, size float64) {
	g := m[key]
	g.Pnl += net
	g.Fees += fee
	g.Volume += size
	g.Count++
	if net > 0 {
		g.Wins++
	} else if net < 0 {
		g.Losses++
	}
	m[key] = g
}

func addBucket(m map[string]BucketStats, key string, net float64) {
	b := m[key]
	b.Pnl += net
	b.Count++
	m[key] = b
}

func leverageBucket(lev float64) string {
	switch {
	case lev <= 1:
		return Bucket1x
	case lev <= 5:
		return Bucket2to5
	case lev <= 10:
		return Bucket6to10
	default:
		return Bucket11Up
	}
}

func profitFactor(sumWins, sumLosses float64) Ratio {
	switch {
	case sumLosses > 0:
		return Ratio(sumWins / sumLosses)
	case sumWins > 0:
		return Ratio(math.Inf(1))
	default:
		return 0
	}
}

// durationMillis is exit minus entry when both parse and exit is later.
func durationMillis(entryTs, exitTs string) (float64, bool) {
	if entryTs == "" || exitTs == "" {
		return 0, false
	}
	entry, ok1 := domain.ParseTimestamp(entryTs)
	exit, ok2 := domain.ParseTimestamp(exitTs)
	if !ok1 || !ok2 || !exit.After(entry) {
		return 0, false
	}
	return float64(exit.Sub(entry)) / float64(time.Millisecond), true
}

// sharpe annualizes mean daily PnL over its sample standard deviation.
func sharpe(daily []float64) float64 {
	if len(daily) < 2 {
		return 0
	}
	mu := mean(daily)
	var ss float64
	for _, p := range daily {
		ss += (p - mu) * (p - mu)
	}
	std := math.Sqrt(ss / float64(len(daily)-1))
	if std == 0 {
		return 0
	}
	return mu / std * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown is the deepest fall from a running peak, in percent of the peak.
// Nothing is measured until the curve has been above zero.
func maxDrawdown(series []EquityPoint) float64 {
	var peak, maxDD float64
	for _, pt := range series {
		if pt.Pnl > peak {
			peak = pt.Pnl
		}
		if peak > 0 {
			if dd := (peak - pt.Pnl) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
