package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

// LoadStatus says how a persisted collection was read.
type LoadStatus int

const (
	// LoadOK means a valid collection was found (possibly an empty array).
	LoadOK LoadStatus = iota
	// LoadEmpty means nothing was stored under the key yet.
	LoadEmpty
	// LoadCorrupt means the stored blob could not be parsed and was treated as empty.
	LoadCorrupt
	// LoadUnavailable means the storage medium failed to answer; the collection starts empty.
	LoadUnavailable
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadEmpty:
		return "empty"
	case LoadCorrupt:
		return "corrupt"
	case LoadUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// LoadResult is a valid collection or an empty one together with the reason.
// Reading never fails outright: a broken cache is the same as an empty one.
type LoadResult struct {
	Trades []domain.Trade
	Status LoadStatus
	Reason error
}

// Degraded reports whether data could not be read and the caller may want to warn once.
func (r LoadResult) Degraded() bool {
	return r.Status == LoadCorrupt || r.Status == LoadUnavailable
}

// Load reads the trade array stored under key.
func Load(ctx context.Context, kv ports.KeyValueStore, key string) LoadResult {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return LoadResult{Trades: []domain.Trade{}, Status: LoadUnavailable, Reason: err}
	}
	if !found || strings.TrimSpace(raw) == "" {
		return LoadResult{Trades: []domain.Trade{}, Status: LoadEmpty}
	}

	var trades []domain.Trade
	if err := json.Unmarshal([]byte(raw), &trades); err != nil {
		return LoadResult{
			Trades: []domain.Trade{},
			Status: LoadCorrupt,
			Reason: fmt.Errorf("stored trades under %q are not a valid JSON array: %w", key, err),
		}
	}
	if trades == nil {
		trades = []domain.Trade{}
	}
	return LoadResult{Trades: trades, Status: LoadOK}
}

func encode(trades []domain.Trade) (string, error) {
	out := make([]domain.Trade, len(trades))
	for i, t := range trades {
		if t.Tags == nil {
			t.Tags = []string{}
		}
		out[i] = t
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
