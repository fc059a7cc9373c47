package journal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

// FilterAll disables a filter, like leaving it empty.
const FilterAll = "ALL"

// DefaultPerPage is the history page size.
const DefaultPerPage = 20

// MaxPerPage caps the page size a caller may request.
const MaxPerPage = 500

// SortKey names a sortable trade column.
type SortKey string

const (
	SortEntryTs SortKey = "entryTs"
	SortExitTs  SortKey = "exitTs"
	SortSymbol  SortKey = "symbol"
	SortSize    SortKey = "size"
	SortNetPnl  SortKey = "netPnl"
	SortFee     SortKey = "fee"
)

// Query selects, orders and pages trades for the history and journal views.
type Query struct {
	Side     string
	Emotion  string
	Strategy string
	Search   string
	SortKey  SortKey
	Asc      bool // Descending by default
	Page     int  // 1-based
	PerPage  int
}

// Result is one page of matching trades.
type Result struct {
	Trades     []domain.Trade `json:"trades"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalPages int            `json:"totalPages"`
}

// ParseSortKey accepts the column names used on the wire.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortEntryTs, nil
	case SortEntryTs, SortExitTs, SortSymbol, SortSize, SortNetPnl, SortFee:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q: %w", s, ports.ErrInvalidRequest)
	}
}

// Run applies q to trades without modifying them.
func (q Query) Run(trades []domain.Trade) (Result, error) {
	key, err := ParseSortKey(string(q.SortKey))
	if err != nil {
		return Result{}, err
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	matched := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if q.matches(t) {
			matched = append(matched, t.Clone())
		}
	}

	less := lessFunc(key)
	sort.SliceStable(matched, func(i, j int) bool {
		if q.Asc {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})

	res := Result{
		Total:      len(matched),
		Page:       page,
		PerPage:    perPage,
		TotalPages: (len(matched) + perPage - 1) / perPage,
		Trades:     []domain.Trade{},
	}
	// Range-check the page before multiplying so huge pages cannot overflow.
	if n := len(matched); n > 0 && page-1 <= (n-1)/perPage {
		start := (page - 1) * perPage
		res.Trades = matched[start:min(start+perPage, n)]
	}
	return res, nil
}

func (q Query) matches(t domain.Trade) bool {
	if !filterMatch(q.Side, string(t.Side)) ||
		!filterMatch(q.Emotion, t.Emotion) ||
		!filterMatch(q.Strategy, t.Strategy) {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	if needle == "" {
		return true
	}
	for _, field := range []string{t.Symbol, t.Strategy, t.Emotion, t.Note} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func filterMatch(filter, value string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	return filter == value
}

func lessFunc(key SortKey) func(a, b domain.Trade) bool {
	switch key {
	case SortExitTs:
		return func(a, b domain.Trade) bool { return instant(a.ExitTs).Before(instant(b.ExitTs)) }
	case SortSymbol:
		return func(a, b domain.Trade) bool { return a.Symbol < b.Symbol }
	case SortSize:
		return func(a, b domain.Trade) bool { return a.Size < b.Size }
	case SortNetPnl:
		return func(a, b domain.Trade) bool { return a.NetPnl < b.NetPnl }
	case SortFee:
		return func(a, b domain.Trade) bool { return a.Fee < b.Fee }
	default:
		return func(a, b domain.Trade) bool { return instant(a.EntryTs).Before(instant(b.EntryTs)) }
	}
}

// instant parses ts, mapping missing or malformed values to the zero time.
func instant(ts string) time.Time {
	t, ok := domain.ParseTimestamp(ts)
	if !ok {
		return time.Time{}
	}
	return t
}
