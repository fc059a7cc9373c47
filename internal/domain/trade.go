package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Trade is one logged position with entry/exit economics and journal metadata.
// JSON names match the persisted layout so stored blobs stay readable across versions.
type Trade struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	OrderType  OrderType `json:"orderType"`
	Size       float64   `json:"size"`       // Notional size in USD
	EntryPrice float64   `json:"entryPrice"` // 0 when unset
	ExitPrice  float64   `json:"exitPrice"`  // 0 when unset
	Leverage   float64   `json:"leverage"`   // 0 is read as 1x
	Fee        float64   `json:"fee"`
	GrossPnl   float64   `json:"grossPnl"` // Derived, see DerivePnl
	NetPnl     float64   `json:"netPnl"`   // Derived, see DerivePnl
	Strategy   string    `json:"strategy"`
	Emotion    string    `json:"emotion"`
	Note       string    `json:"note"`
	Tags       []string  `json:"tags"`
	EntryTs    string    `json:"entryTs"`
	ExitTs     string    `json:"exitTs"` // Empty for open or incomplete trades
	CreatedAt  string    `json:"createdAt"`
}

// EffectiveLeverage returns the leverage multiplier, defaulting to 1 when unset.
func (t *Trade) EffectiveLeverage() float64 {
	if t.Leverage <= 0 {
		return 1
	}
	return t.Leverage
}

// IsOpen reports whether the trade has no exit timestamp yet.
func (t *Trade) IsOpen() bool {
	return t.ExitTs == ""
}

// WithDerivedPnl returns a copy whose fee, gross and net PnL are recomputed from
// the economic fields. Every store write path goes through here.
func (t Trade) WithDerivedPnl() Trade {
	p := DerivePnl(t.Side, t.Size, t.EntryPrice, t.ExitPrice, t.Fee)
	t.GrossPnl = p.Gross
	t.Fee = p.Fee
	t.NetPnl = p.Net
	return t
}

// Clone returns a deep copy (the tags slice is not shared).
func (t Trade) Clone() Trade {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}

// Validate checks hard invariants only. Free-form fields such as symbol,
// strategy or emotion are never rejected for being outside the suggestion lists.
func (t *Trade) Validate() error {
	var errs []error
	if strings.TrimSpace(t.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if !t.Side.Valid() {
		errs = append(errs, fmt.Errorf("side must be LONG or SHORT, got %q", t.Side))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"size", t.Size}, {"entryPrice", t.EntryPrice}, {"exitPrice", t.ExitPrice},
		{"leverage", t.Leverage}, {"fee", t.Fee},
	} {
		if !IsFinite(f.v) {
			errs = append(errs, fmt.Errorf("%s must be a finite number", f.name))
		}
	}
	if t.Size < 0 {
		errs = append(errs, errors.New("size cannot be negative"))
	}
	if t.Fee < 0 {
		errs = append(errs, errors.New("fee cannot be negative"))
	}
	if t.Leverage < 0 {
		errs = append(errs, errors.New("leverage cannot be negative"))
	}
	return errors.Join(errs...)
}

// TradePatch carries a partial update. Nil fields are left untouched.
type TradePatch struct {
	Symbol     *string    `json:"symbol,omitempty"`
	Side       *Side      `json:"side,omitempty"`
	OrderType  *OrderType `json:"orderType,omitempty"`
	Size       *float64   `json:"size,omitempty"`
	EntryPrice *float64   `json:"entryPrice,omitempty"`
	ExitPrice  *float64   `json:"exitPrice,omitempty"`
	Leverage   *float64   `json:"leverage,omitempty"`
	Fee        *float64   `json:"fee,omitempty"`
	Strategy   *string    `json:"strategy,omitempty"`
	Emotion    *string    `json:"emotion,omitempty"`
	Note       *string    `json:"note,omitempty"`
	Tags       *[]string  `json:"tags,omitempty"`
	EntryTs    *string    `json:"entryTs,omitempty"`
	ExitTs     *string    `json:"exitTs,omitempty"`
}

// Apply merges the patch onto t and returns the result. ID and CreatedAt are
// never touched; derived PnL fields are left for the caller to recompute.
func (p TradePatch) Apply(t Trade) Trade {
	t = t.Clone()
	if p.Symbol != nil {
		t.Symbol = *p.Symbol
	}
	if p.Side != nil {
		t.Side = *p.Side
	}
	if p.OrderType != nil {
		t.OrderType = *p.OrderType
	}
	if p.Size != nil {
		t.Size = *p.Size
	}
	if p.EntryPrice != nil {
		t.EntryPrice = *p.EntryPrice
	}
	if p.ExitPrice != nil {
		t.ExitPrice = *p.ExitPrice
	}
	if p.Leverage != nil {
		t.Leverage = *p.Leverage
	}
	if p.Fee != nil {
		t.Fee = *p.Fee
	}
	if p.Strategy != nil {
		t.Strategy = *p.Strategy
	}
	if p.Emotion != nil {
		t.Emotion = *p.Emotion
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.EntryTs != nil {
		t.EntryTs = *p.EntryTs
	}
	if p.ExitTs != nil {
		t.ExitTs = *p.ExitTs
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TradePatch) IsEmpty() bool {
	return p == TradePatch{}
}
