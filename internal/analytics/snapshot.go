package analytics

import (
	"encoding/json"
	"math"
	"sort"

	"tradejournal/internal/domain"
)

// Leverage bucket labels, in display order.
const (
	Bucket1x    = "1x"
	Bucket2to5  = "2-5x"
	Bucket6to10 = "6-10x"
	Bucket11Up  = "11x+"
)

// LeverageBuckets lists the bucket labels in ascending leverage.
var LeverageBuckets = []string{Bucket1x, Bucket2to5, Bucket6to10, Bucket11Up}

// Ratio is a float that may be +Inf. JSON has no infinity, so it is written as
// the string "Infinity", the same token the browser dashboard produces.
type Ratio float64

func (r Ratio) IsInf() bool { return math.IsInf(float64(r), 1) }

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == `"Infinity"` {
		*r = Ratio(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// GroupStats aggregates the trades sharing a symbol, strategy, emotion or order type.
// Wins and Losses count strictly positive and strictly negative net PnL only.
type GroupStats struct {
	Pnl    float64 `json:"pnl" yaml:"pnl"`
	Wins   int     `json:"wins" yaml:"wins"`
	Losses int     `json:"losses" yaml:"losses"`
	Count  int     `json:"count" yaml:"count"`
	Fees   float64 `json:"fees" yaml:"fees"`
	Volume float64 `json:"volume" yaml:"volume"`
}

// WinRate returns the group's win percentage.
func (g GroupStats) WinRate() float64 {
	if g.Count == 0 {
		return 0
	}
	return float64(g.Wins) / float64(g.Count) * 100
}

// BucketStats is a {pnl, count} aggregate used for days, months and leverage buckets.
type BucketStats struct {
	Pnl   float64 `json:"pnl" yaml:"pnl"`
	Count int     `json:"count" yaml:"count"`
}

// EquityPoint is one step of the cumulative PnL curve.
type EquityPoint struct {
	Date    string  `json:"date" yaml:"date"`
	Pnl     float64 `json:"pnl" yaml:"pnl"`
	TradeID string  `json:"tradeId" yaml:"tradeId"`
}

// RiskFlags are the four qualitative health indicators.
type RiskFlags struct {
	FeeEfficiency domain.RiskLevel `json:"feeEfficiency" yaml:"feeEfficiency"`
	Drawdown      domain.RiskLevel `json:"drawdownAlert" yaml:"drawdownAlert"`
	Overtrading   domain.RiskLevel `json:"overtradingAlert" yaml:"overtradingAlert"`
	EdgeStrength  domain.RiskLevel `json:"edgeStrength" yaml:"edgeStrength"`
}

// Snapshot is the full analytics view derived from a trade collection.
// It is rebuilt from scratch on every change and never persisted.
type Snapshot struct {
	TotalNet    float64 `json:"totalNet" yaml:"totalNet"`
	TotalGross  float64 `json:"totalGross" yaml:"totalGross"`
	TotalFees   float64 `json:"totalFees" yaml:"totalFees"`
	TotalVolume float64 `json:"totalVolume" yaml:"totalVolume"`

	Wins   int `json:"wins" yaml:"wins"`
	Losses int `json:"losses" yaml:"losses"`
	Total  int `json:"total" yaml:"total"`

	WinRate      float64 `json:"winRate" yaml:"winRate"`
	ProfitFactor Ratio   `json:"profitFactor" yaml:"profitFactor"`
	Sharpe       float64 `json:"sharpe" yaml:"sharpe"`
	MaxDrawdown  float64 `json:"maxDD" yaml:"maxDD"`
	AvgWin       float64 `json:"avgWin" yaml:"avgWin"`
	AvgLoss      float64 `json:"avgLoss" yaml:"avgLoss"`
	AvgDuration  float64 `json:"avgDuration" yaml:"avgDuration"` // Milliseconds
	FeeDrag      float64 `json:"feeDrag" yaml:"feeDrag"`

	LongPnl    float64 `json:"longPnl" yaml:"longPnl"`
	ShortPnl   float64 `json:"shortPnl" yaml:"shortPnl"`
	LongCount  int     `json:"longCount" yaml:"longCount"`
	ShortCount int     `json:"shortCount" yaml:"shortCount"`

	SymbolMap       map[string]GroupStats  `json:"symbolMap" yaml:"symbolMap"`
	StrategyMap     map[string]GroupStats  `json:"strategyMap" yaml:"strategyMap"`
	EmotionMap      map[string]GroupStats  `json:"emotionMap" yaml:"emotionMap"`
	OrderTypeMap    map[string]GroupStats  `json:"orderTypeMap" yaml:"orderTypeMap"`
	DailyPnlMap     map[string]BucketStats `json:"dailyPnlMap" yaml:"dailyPnlMap"`
	MonthlyPnlMap   map[string]BucketStats `json:"monthlyPnlMap" yaml:"monthlyPnlMap"`
	LeverageBuckets map[string]BucketStats `json:"leverageBuckets" yaml:"leverageBuckets"`
	CumPnlSeries    []EquityPoint          `json:"cumPnlSeries" yaml:"cumPnlSeries"`

	RiskAlerts      RiskFlags `json:"riskAlerts" yaml:"riskAlerts"`
	Consistency     float64   `json:"consistency" yaml:"consistency"`
	OvertradingDays int       `json:"overtradingDays" yaml:"overtradingDays"`
	AvgDailyTrades  float64   `json:"avgDailyTrades" yaml:"avgDailyTrades"`

	MaxConsecutiveWins   int     `json:"maxConsecutiveWins" yaml:"maxConsecutiveWins"`
	MaxConsecutiveLosses int     `json:"maxConsecutiveLosses" yaml:"maxConsecutiveLosses"`
	Expectancy           float64 `json:"expectancy" yaml:"expectancy"`
}

// EmptySnapshot is the result for an empty collection: zeros, empty maps and
// every risk flag healthy. Leverage buckets are empty too.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		SymbolMap:       map[string]GroupStats{},
		StrategyMap:     map[string]GroupStats{},
		EmotionMap:      map[string]GroupStats{},
		OrderTypeMap:    map[string]GroupStats{},
		DailyPnlMap:     map[string]BucketStats{},
		MonthlyPnlMap:   map[string]BucketStats{},
		LeverageBuckets: map[string]BucketStats{},
		CumPnlSeries:    []EquityPoint{},
		RiskAlerts: RiskFlags{
			FeeEfficiency: domain.RiskHealthy,
			Drawdown:      domain.RiskHealthy,
			Overtrading:   domain.RiskHealthy,
			EdgeStrength:  domain.RiskHealthy,
		},
	}
}

// KeyedGroup is a group aggregate with its key, for ordered output.
type KeyedGroup struct {
	Key string `json:"key" yaml:"key"`
	GroupStats `yaml:",inline"`
}

// KeyedBucket is a bucket aggregate with its key, for ordered output.
type KeyedBucket struct {
	Key string `json:"key" yaml:"key"`
	BucketStats `yaml:",inline"`
}

// Groups returns m as a slice sorted by key.
func Groups(m map[string]GroupStats) []KeyedGroup {
	out := make([]KeyedGroup, 0, len(m))
	for k, v := range m {
		out = append(out, KeyedGroup{Key: k, GroupStats: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Daily returns the per-day buckets in date order. The "unknown" bucket sorts last.
func (s *Snapshot) Daily() []KeyedBucket {
	return sortedBuckets(s.DailyPnlMap)
}

// Monthly returns the per-month buckets in date order. The "unknown" bucket sorts last.
func (s *Snapshot) Monthly() []KeyedBucket {
	return sortedBuckets(s.MonthlyPnlMap)
}

// Leverage returns the leverage buckets in ascending leverage.
func (s *Snapshot) Leverage() []KeyedBucket {
	out := make([]KeyedBucket, 0, len(s.LeverageBuckets))
	for _, k := range LeverageBuckets {
		if v, ok := s.LeverageBuckets[k]; ok {
			out = append(out, KeyedBucket{Key: k, BucketStats: v})
		}
	}
	return out
}

// TopSymbolsByVolume returns up to n symbols with the highest traded volume.
// Ties break by symbol name. n <= 0 returns all.
func (s *Snapshot) TopSymbolsByVolume(n int) []KeyedGroup {
	out := Groups(s.SymbolMap)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume > out[j].Volume })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedBuckets(m map[string]BucketStats) []KeyedBucket {
	out := make([]KeyedBucket, 0, len(m))
	for k, v := range m {
		out = append(out, KeyedBucket{Key: k, BucketStats: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if (a == domain.UnknownDay) != (b == domain.UnknownDay) {
			return b == domain.UnknownDay
		}
		return a < b
	})
	return out
}
