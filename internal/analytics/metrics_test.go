package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/domain"
)

// dayTrade builds a one-minute LONG trade on 2025-01-<day> with the given net PnL.
func dayTrade(id string, day int, net float64) domain.Trade {
	return domain.Trade{
		ID:        id,
		Symbol:    "SOL-PERP",
		Side:      domain.Long,
		OrderType: domain.OrderMarket,
		Size:      100,
		Leverage:  1,
		GrossPnl:  net,
		NetPnl:    net,
		EntryTs:   fmt.Sprintf("2025-01-%02dT10:00:00.000Z", day),
		ExitTs:    fmt.Sprintf("2025-01-%02dT10:01:00.000Z", day),
	}
}

func mixedFixture() []domain.Trade {
	return []domain.Trade{
		{
			ID: "a", Symbol: "SOL-PERP", Side: domain.Long, OrderType: domain.OrderMarket,
			Size: 1000, Fee: 2, GrossPnl: 52, NetPnl: 50, Leverage: 1,
			Strategy: "Breakout", Emotion: "Calm",
			EntryTs: "2025-01-01T10:00:00Z", ExitTs: "2025-01-01T11:00:00Z",
		},
		{
			ID: "b", Symbol: "BTC-PERP", Side: domain.Short, OrderType: domain.OrderLimit,
			Size: 2000, Fee: 4, GrossPnl: -26, NetPnl: -30, Leverage: 5,
			Emotion: "FOMO",
			EntryTs: "2025-01-02T10:00:00Z",
		},
		{
			ID: "c", Symbol: "SOL-PERP", Side: domain.Short,
			Size: 500, Fee: 1, GrossPnl: 1, NetPnl: 0, Leverage: 20,
			Strategy: "Breakout",
		},
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	for _, in := range [][]domain.Trade{nil, {}} {
		s := ComputeMetrics(in)
		assert.Equal(t, EmptySnapshot(), s)
		assert.Equal(t, 0, s.Total)
		assert.Equal(t, Ratio(0), s.ProfitFactor)
		assert.Equal(t, domain.RiskHealthy, s.RiskAlerts.FeeEfficiency)
		assert.Equal(t, domain.RiskHealthy, s.RiskAlerts.Drawdown)
		assert.Equal(t, domain.RiskHealthy, s.RiskAlerts.Overtrading)
		assert.Equal(t, domain.RiskHealthy, s.RiskAlerts.EdgeStrength)
		assert.NotNil(t, s.LeverageBuckets)
		assert.Empty(t, s.LeverageBuckets)
	}

	b, err := json.Marshal(ComputeMetrics(nil))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"leverageBuckets":{}`)
	assert.Contains(t, string(b), `"cumPnlSeries":[]`)
	assert.Contains(t, string(b), `"profitFactor":0`)
}

func TestComputeMetrics_Mixed(t *testing.T) {
	s := ComputeMetrics(mixedFixture())

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Wins, "break-even counts as a win")
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 27.0, s.TotalGross, 1e-9)
	assert.InDelta(t, 7.0, s.TotalFees, 1e-9)
	assert.InDelta(t, 20.0, s.TotalNet, 1e-9)
	assert.InDelta(t, 3500.0, s.TotalVolume, 1e-9)
	assert.InDelta(t, 200.0/3, s.WinRate, 1e-9)
	assert.InDelta(t, 50.0/30, float64(s.ProfitFactor), 1e-9)
	assert.Equal(t, 50.0, s.AvgWin)
	assert.Equal(t, -30.0, s.AvgLoss)
	assert.Equal(t, 3_600_000.0, s.AvgDuration)
	assert.InDelta(t, 7.0/27*100, s.FeeDrag, 1e-9)

	assert.Equal(t, 50.0, s.LongPnl)
	assert.Equal(t, 1, s.LongCount)
	assert.Equal(t, -30.0, s.ShortPnl)
	assert.Equal(t, 2, s.ShortCount)

	// Missing entryTs sorts first.
	require.Len(t, s.CumPnlSeries, 3)
	assert.Equal(t, EquityPoint{Date: "", Pnl: 0, TradeID: "c"}, s.CumPnlSeries[0])
	assert.Equal(t, EquityPoint{Date: "2025-01-01T10:00:00Z", Pnl: 50, TradeID: "a"}, s.CumPnlSeries[1])
	assert.Equal(t, EquityPoint{Date: "2025-01-02T10:00:00Z", Pnl: 20, TradeID: "b"}, s.CumPnlSeries[2])
	assert.InDelta(t, 60.0, s.MaxDrawdown, 1e-9)

	assert.Equal(t, GroupStats{Pnl: 50, Wins: 1, Losses: 0, Count: 2, Fees: 3, Volume: 1500}, s.SymbolMap["SOL-PERP"])
	assert.Equal(t, GroupStats{Pnl: -30, Wins: 0, Losses: 1, Count: 1, Fees: 4, Volume: 2000}, s.SymbolMap["BTC-PERP"])
	assert.Equal(t, map[string]GroupStats{
		"Breakout": {Pnl: 50, Wins: 1, Count: 2, Fees: 3, Volume: 1500},
	}, s.StrategyMap)
	assert.Len(t, s.EmotionMap, 2)
	assert.Len(t, s.OrderTypeMap, 2, "empty order type is ungrouped")

	assert.Equal(t, map[string]BucketStats{
		"unknown":    {Pnl: 0, Count: 1},
		"2025-01-01": {Pnl: 50, Count: 1},
		"2025-01-02": {Pnl: -30, Count: 1},
	}, s.DailyPnlMap)
	assert.Equal(t, map[string]BucketStats{
		"unknown": {Pnl: 0, Count: 1},
		"2025-01": {Pnl: 20, Count: 2},
	}, s.MonthlyPnlMap)
	assert.Equal(t, map[string]BucketStats{
		"1x":    {Pnl: 50, Count: 1},
		"2-5x":  {Pnl: -30, Count: 1},
		"6-10x": {},
		"11x+":  {Pnl: 0, Count: 1},
	}, s.LeverageBuckets)

	mu := 20.0 / 3
	std := math.Sqrt((math.Pow(50-mu, 2) + math.Pow(-30-mu, 2) + math.Pow(0-mu, 2)) / 2)
	assert.InDelta(t, mu/std*math.Sqrt(252), s.Sharpe, 1e-9)
	assert.InDelta(t, 100.0/3, s.Consistency, 1e-9)
	assert.Equal(t, 1.0, s.AvgDailyTrades)
	assert.Equal(t, 0, s.OvertradingDays)

	assert.Equal(t, 2, s.MaxConsecutiveWins)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)
	assert.InDelta(t, 2.0/3*50+1.0/3*-30, s.Expectancy, 1e-9)

	assert.Equal(t, RiskFlags{
		FeeEfficiency: domain.RiskCaution,
		Drawdown:      domain.RiskCritical,
		Overtrading:   domain.RiskHealthy,
		EdgeStrength:  domain.RiskHealthy,
	}, s.RiskAlerts)
}

func TestComputeMetrics_IdempotentAndPure(t *testing.T) {
	in := mixedFixture()
	before := make([]domain.Trade, len(in))
	copy(before, in)

	first := ComputeMetrics(in)
	second := ComputeMetrics(in)

	assert.Equal(t, first, second)
	assert.Equal(t, before, in, "input order and contents are untouched")
}

func TestComputeMetrics_ProfitFactor(t *testing.T) {
	tests := []struct {
		name string
		nets []float64
		want float64
	}{
		{"wins only", []float64{300}, math.Inf(1)},
		{"nothing", []float64{0, 0}, 0},
		{"ratio", []float64{150, -100}, 1.5},
		{"losses only", []float64{-10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trades []domain.Trade
			for i, n := range tt.nets {
				trades = append(trades, dayTrade(fmt.Sprint(i), i+1, n))
			}
			s := ComputeMetrics(trades)
			assert.Equal(t, tt.want, float64(s.ProfitFactor))
		})
	}
}

func TestRatio_JSON(t *testing.T) {
	b, err := json.Marshal(Ratio(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, `"Infinity"`, string(b))

	b, err = json.Marshal(Ratio(1.5))
	require.NoError(t, err)
	assert.Equal(t, `1.5`, string(b))

	var r Ratio
	require.NoError(t, json.Unmarshal([]byte(`"Infinity"`), &r))
	assert.True(t, r.IsInf())
	require.NoError(t, json.Unmarshal([]byte(`2.25`), &r))
	assert.Equal(t, Ratio(2.25), r)

	s := ComputeMetrics([]domain.Trade{dayTrade("a", 1, 300)})
	b, err = json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"profitFactor":"Infinity"`)
}

func TestComputeMetrics_Drawdown(t *testing.T) {
	// Cumulative series 100, 150, 90, 200.
	trades := []domain.Trade{
		dayTrade("a", 1, 100),
		dayTrade("b", 2, 50),
		dayTrade("c", 3, -60),
		dayTrade("d", 4, 110),
	}
	s := ComputeMetrics(trades)
	assert.InDelta(t, 40.0, s.MaxDrawdown, 1e-9)
	assert.Equal(t, domain.RiskCritical, s.RiskAlerts.Drawdown)

	// No drawdown is measured while the curve has never been positive.
	s = ComputeMetrics([]domain.Trade{dayTrade("a", 1, -10), dayTrade("b", 2, -20)})
	assert.Equal(t, 0.0, s.MaxDrawdown)
}

func TestComputeMetrics_LeverageBuckets(t *testing.T) {
	tests := []struct {
		lev  float64
		want string
	}{
		{1, "1x"}, {0, "1x"}, {0.5, "1x"}, {1.5, "2-5x"}, {5, "2-5x"},
		{10, "6-10x"}, {11, "11x+"}, {125, "11x+"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.lev), func(t *testing.T) {
			tr := dayTrade("a", 1, 10)
			tr.Leverage = tt.lev
			s := ComputeMetrics([]domain.Trade{tr})
			assert.Equal(t, 1, s.LeverageBuckets[tt.want].Count)
			assert.Len(t, s.LeverageBuckets, 4)
		})
	}
}

func TestComputeMetrics_GroupingExclusion(t *testing.T) {
	tr := dayTrade("a", 1, 25)
	tr.Strategy = ""
	tr.EntryTs = ""
	s := ComputeMetrics([]domain.Trade{tr})

	assert.Equal(t, 25.0, s.TotalNet)
	assert.Empty(t, s.StrategyMap)
	assert.Equal(t, BucketStats{Pnl: 25, Count: 1}, s.DailyPnlMap["unknown"])
	assert.Equal(t, 0.0, s.AvgDuration, "no duration without an entry time")
}

func TestComputeMetrics_BreakEvenGroupAsymmetry(t *testing.T) {
	tr := dayTrade("a", 1, 0)
	tr.Strategy = "Scalping"
	s := ComputeMetrics([]domain.Trade{tr})

	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 100.0, s.WinRate)
	assert.Equal(t, GroupStats{Count: 1, Volume: 100}, s.StrategyMap["Scalping"])
}

func TestComputeMetrics_Sharpe(t *testing.T) {
	s := ComputeMetrics([]domain.Trade{dayTrade("a", 1, 10), dayTrade("b", 2, 30)})
	assert.InDelta(t, 20/math.Sqrt(200)*math.Sqrt(252), s.Sharpe, 1e-9)

	s = ComputeMetrics([]domain.Trade{dayTrade("a", 1, 10), dayTrade("b", 1, 30)})
	assert.Equal(t, 0.0, s.Sharpe, "a single day has no deviation")

	s = ComputeMetrics([]domain.Trade{dayTrade("a", 1, 10), dayTrade("b", 2, 10)})
	assert.Equal(t, 0.0, s.Sharpe, "flat days have zero deviation")
}

func TestComputeMetrics_Overtrading(t *testing.T) {
	var trades []domain.Trade
	for day := 1; day <= 4; day++ {
		trades = append(trades, dayTrade(fmt.Sprintf("d%d", day), day, 1))
	}
	for i := 0; i < 6; i++ {
		trades = append(trades, dayTrade(fmt.Sprintf("busy%d", i), 5, 1))
	}
	s := ComputeMetrics(trades)

	assert.Equal(t, 2.0, s.AvgDailyTrades)
	assert.Equal(t, 1, s.OvertradingDays)
	assert.Equal(t, domain.RiskCaution, s.RiskAlerts.Overtrading)
}

func TestComputeMetrics_Durations(t *testing.T) {
	ok := dayTrade("ok", 1, 1)
	ok.ExitTs = "2025-01-01T11:30:00.000Z"
	backwards := dayTrade("back", 2, 1)
	backwards.ExitTs = "2025-01-01T00:00:00.000Z"
	open := dayTrade("open", 3, 1)
	open.ExitTs = ""
	bad := dayTrade("bad", 4, 1)
	bad.ExitTs = "soon"

	s := ComputeMetrics([]domain.Trade{ok, backwards, open, bad})
	assert.Equal(t, 5_400_000.0, s.AvgDuration)
}

func TestComputeMetrics_Streaks(t *testing.T) {
	nets := []float64{5, 0, 3, -1, -2, -3, 4}
	var trades []domain.Trade
	for i, n := range nets {
		trades = append(trades, dayTrade(fmt.Sprint(i), i+1, n))
	}
	s := ComputeMetrics(trades)
	assert.Equal(t, 3, s.MaxConsecutiveWins)
	assert.Equal(t, 3, s.MaxConsecutiveLosses)
}

func TestRiskLevels(t *testing.T) {
	assert.Equal(t, domain.RiskHealthy, feeEfficiencyLevel(14.99))
	assert.Equal(t, domain.RiskCaution, feeEfficiencyLevel(15))
	assert.Equal(t, domain.RiskCritical, feeEfficiencyLevel(30))

	assert.Equal(t, domain.RiskHealthy, drawdownLevel(9.9))
	assert.Equal(t, domain.RiskCaution, drawdownLevel(10))
	assert.Equal(t, domain.RiskCritical, drawdownLevel(25))

	assert.Equal(t, domain.RiskHealthy, edgeStrengthLevel(Ratio(math.Inf(1))))
	assert.Equal(t, domain.RiskCaution, edgeStrengthLevel(1.5))
	assert.Equal(t, domain.RiskCritical, edgeStrengthLevel(1.0))

	assert.Equal(t, domain.RiskHealthy, overtradingLevel(0))
	assert.Equal(t, domain.RiskCaution, overtradingLevel(2))
	assert.Equal(t, domain.RiskCritical, overtradingLevel(3))
}
