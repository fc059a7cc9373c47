package journal

import (
	"math"
	"strconv"
	"strings"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/id"
)

// TradeInput holds the editor fields as typed, before any parsing.
type TradeInput struct {
	Symbol     string `json:"symbol" yaml:"symbol"`
	Side       string `json:"side" yaml:"side"`
	OrderType  string `json:"orderType" yaml:"orderType"`
	Size       string `json:"size" yaml:"size"`
	EntryPrice string `json:"entryPrice" yaml:"entryPrice"`
	ExitPrice  string `json:"exitPrice" yaml:"exitPrice"`
	Leverage   string `json:"leverage" yaml:"leverage"`
	Fee        string `json:"fee" yaml:"fee"`
	Strategy   string `json:"strategy" yaml:"strategy"`
	Emotion    string `json:"emotion" yaml:"emotion"`
	Note       string `json:"note" yaml:"note"`
	Tags       string `json:"tags" yaml:"tags"` // Comma separated
	EntryTs    string `json:"entryTs" yaml:"entryTs"`
	ExitTs     string `json:"exitTs" yaml:"exitTs"`
}

const (
	defaultSymbol    = "SOL-PERP"
	defaultSide      = domain.Long
	defaultOrderType = domain.OrderMarket
)

// InputFromTrade pre-fills the editor from an existing trade.
func InputFromTrade(t domain.Trade) TradeInput {
	return TradeInput{
		Symbol:     t.Symbol,
		Side:       string(t.Side),
		OrderType:  string(t.OrderType),
		Size:       formatNumber(t.Size),
		EntryPrice: formatNumber(t.EntryPrice),
		ExitPrice:  formatNumber(t.ExitPrice),
		Leverage:   formatNumber(t.EffectiveLeverage()),
		Fee:        formatNumber(t.Fee),
		Strategy:   t.Strategy,
		Emotion:    t.Emotion,
		Note:       t.Note,
		Tags:       strings.Join(t.Tags, ", "),
		EntryTs:    t.EntryTs,
		ExitTs:     t.ExitTs,
	}
}

// Builder turns editor input into trades.
type Builder struct {
	now   func() time.Time
	newID func() string
}

// NewBuilder returns a builder. Nil arguments fall back to time.Now and id.New.
func NewBuilder(now func() time.Time, newID func() string) *Builder {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = id.New
	}
	return &Builder{now: now, newID: newID}
}

// NewTrade builds a trade from in. When editing is non-nil its id and createdAt
// are kept. Numbers parse leniently: garbage reads as 0, leverage as 1.
func (b *Builder) NewTrade(in TradeInput, editing *domain.Trade) domain.Trade {
	now := domain.FormatTimestamp(b.now())

	t := domain.Trade{
		Symbol:     orDefault(in.Symbol, defaultSymbol),
		Side:       domain.Side(strings.ToUpper(orDefault(in.Side, string(defaultSide)))),
		OrderType:  domain.OrderType(orDefault(in.OrderType, string(defaultOrderType))),
		Size:       parseNumber(in.Size),
		EntryPrice: parseNumber(in.EntryPrice),
		ExitPrice:  parseNumber(in.ExitPrice),
		Leverage:   parseNumber(in.Leverage),
		Fee:        parseNumber(in.Fee),
		Strategy:   strings.TrimSpace(in.Strategy),
		Emotion:    strings.TrimSpace(in.Emotion),
		Note:       in.Note,
		Tags:       SplitTags(in.Tags),
		EntryTs:    orDefault(in.EntryTs, now),
		ExitTs:     strings.TrimSpace(in.ExitTs),
	}
	if t.Leverage <= 0 {
		t.Leverage = 1
	}

	if editing != nil && editing.ID != "" {
		t.ID = editing.ID
		t.CreatedAt = editing.CreatedAt
	} else {
		t.ID = b.newID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = now
	}
	return t.WithDerivedPnl()
}

// SplitTags splits a comma separated list, trimming and dropping blanks.
func SplitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func formatNumber(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
