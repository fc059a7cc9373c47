package journal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

func queryFixture() []domain.Trade {
	mk := func(id, sym string, side domain.Side, strat, emo, note, entry string, net float64) domain.Trade {
		return domain.Trade{ID: id, Symbol: sym, Side: side, Strategy: strat, Emotion: emo, Note: note, EntryTs: entry, NetPnl: net, Size: net * 10}
	}
	return []domain.Trade{
		mk("1", "SOL-PERP", domain.Long, "Breakout", "Calm", "clean break", "2025-01-03T10:00:00Z", 50),
		mk("2", "BTC-PERP", domain.Short, "Scalping", "FOMO", "", "2025-01-01T10:00:00Z", -20),
		mk("3", "ETH-PERP", domain.Long, "Breakout", "FOMO", "late", "", 10),
		mk("4", "SOL-PERP", domain.Short, "", "", "revenge after sol loss", "2025-01-02T10:00:00Z", -5),
	}
}

func ids(trades []domain.Trade) []string {
	out := make([]string, 0, len(trades))
	for _, t := range trades {
		out = append(out, t.ID)
	}
	return out
}

func TestQuery_DefaultSortsNewestFirst(t *testing.T) {
	res, err := Query{}.Run(queryFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "2", "3"}, ids(res.Trades))
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, DefaultPerPage, res.PerPage)
}

func TestQuery_Filters(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"side", Query{Side: "SHORT"}, []string{"4", "2"}},
		{"all side", Query{Side: FilterAll}, []string{"1", "4", "2", "3"}},
		{"emotion", Query{Emotion: "FOMO"}, []string{"2", "3"}},
		{"strategy", Query{Strategy: "Breakout"}, []string{"1", "3"}},
		{"search symbol case-insensitive", Query{Search: "sol"}, []string{"1", "4"}},
		{"search note", Query{Search: "LATE"}, []string{"3"}},
		{"search emotion", Query{Search: "fomo"}, []string{"2", "3"}},
		{"combined", Query{Side: "LONG", Search: "eth"}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.q.Run(queryFixture())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res.Trades))
		})
	}
}

func TestQuery_Sort(t *testing.T) {
	res, err := Query{SortKey: SortNetPnl, Asc: true}.Run(queryFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4", "3", "1"}, ids(res.Trades))

	res, err = Query{SortKey: SortSymbol, Asc: true}.Run(queryFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1", "4"}, ids(res.Trades))

	res, err = Query{SortKey: SortEntryTs, Asc: true}.Run(queryFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids(res.Trades), "missing entryTs sorts as the zero instant")

	_, err = Query{SortKey: "price"}.Run(queryFixture())
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestQuery_Paging(t *testing.T) {
	res, err := Query{PerPage: 3, Page: 2}.Run(queryFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(res.Trades))
	assert.Equal(t, 2, res.TotalPages)

	res, err = Query{PerPage: 3, Page: 5}.Run(queryFixture())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.Trades)

	res, err = Query{}.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalPages)
}

func TestQuery_PagingExtremes(t *testing.T) {
	res, err := Query{Page: math.MaxInt / 10, PerPage: 20}.Run(queryFixture())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.Trades)
	assert.Equal(t, 4, res.Total)

	res, err = Query{Page: math.MaxInt, PerPage: math.MaxInt}.Run(queryFixture())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, MaxPerPage, res.PerPage)
	assert.Equal(t, 1, res.TotalPages)

	res, err = Query{Page: 1, PerPage: math.MaxInt}.Run(queryFixture())
	require.NoError(t, err)
	assert.Len(t, res.Trades, 4)
}
