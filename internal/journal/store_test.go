package journal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/adapters/memory"
	"tradejournal/internal/adapters/sqlite"
	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

// recordingLogger keeps warnings so tests can assert on one-time load warnings.
type recordingLogger struct {
	ports.NopLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...ports.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("T%03d", n)
	}
}

func newTestStore(t *testing.T, kv ports.KeyValueStore) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), Config{KV: kv, NewID: sequentialIDs()})
	require.NoError(t, err)
	return s
}

func sampleTrade(id string) domain.Trade {
	return domain.Trade{
		ID:         id,
		Symbol:     "SOL-PERP",
		Side:       domain.Long,
		OrderType:  domain.OrderMarket,
		Size:       1000,
		EntryPrice: 100,
		ExitPrice:  110,
		Leverage:   3,
		Fee:        5,
		Strategy:   "Breakout",
		Emotion:    "Calm",
		Tags:       []string{"a", "b"},
		EntryTs:    "2025-01-02T10:00:00.000Z",
		ExitTs:     "2025-01-02T11:00:00.000Z",
		CreatedAt:  "2025-01-02T11:05:00.000Z",
	}
}

func TestNewStore_RequiresKV(t *testing.T) {
	_, err := NewStore(context.Background(), Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		res := Load(ctx, memory.NewStore(), GlobalKey)
		assert.Equal(t, LoadEmpty, res.Status)
		assert.Empty(t, res.Trades)
		assert.NoError(t, res.Reason)
	})

	t.Run("corrupt blob", func(t *testing.T) {
		kv := memory.NewStore()
		require.NoError(t, kv.Set(ctx, GlobalKey, "{not json"))
		res := Load(ctx, kv, GlobalKey)
		assert.Equal(t, LoadCorrupt, res.Status)
		assert.NotNil(t, res.Trades)
		assert.Empty(t, res.Trades)
		assert.Error(t, res.Reason)
		assert.True(t, res.Degraded())
	})

	t.Run("json null", func(t *testing.T) {
		kv := memory.NewStore()
		require.NoError(t, kv.Set(ctx, GlobalKey, "null"))
		res := Load(ctx, kv, GlobalKey)
		assert.Equal(t, LoadOK, res.Status)
		assert.Empty(t, res.Trades)
	})

	t.Run("valid array with null exitTs", func(t *testing.T) {
		kv := memory.NewStore()
		require.NoError(t, kv.Set(ctx, GlobalKey, `[{"id":"x","side":"SHORT","netPnl":-3.5,"exitTs":null}]`))
		res := Load(ctx, kv, GlobalKey)
		require.Equal(t, LoadOK, res.Status)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, "x", res.Trades[0].ID)
		assert.Equal(t, "", res.Trades[0].ExitTs)
		assert.Equal(t, -3.5, res.Trades[0].NetPnl)
	})
}

func TestNewStore_CorruptDataWarnsOnce(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	require.NoError(t, kv.Set(ctx, GlobalKey, "garbage"))
	logger := &recordingLogger{}

	s, err := NewStore(ctx, Config{KV: kv, Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, LoadCorrupt, s.LastLoad().Status)
	assert.Len(t, logger.warns, 1)

	// The first write replaces the corrupt blob.
	require.NoError(t, s.Add(ctx, sampleTrade("a")))
	assert.Equal(t, LoadOK, Load(ctx, kv, GlobalKey).Status)
	assert.False(t, s.LastLoad().Degraded())
	assert.Len(t, logger.warns, 1)
}

func TestStore_FailedWriteKeepsDegradedLoad(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	require.NoError(t, kv.Set(ctx, GlobalKey, "garbage"))
	s := newTestStore(t, kv)

	kv.FailWrites = errors.New("disk full")
	assert.ErrorIs(t, s.Add(ctx, sampleTrade("a")), ports.ErrPersistFailed)
	assert.Equal(t, LoadCorrupt, s.LastLoad().Status)
}

func TestStore_AddDerivesPnlAndAssignsID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())

	tr := sampleTrade("")
	tr.GrossPnl, tr.NetPnl = 999, 999 // stale values are overwritten
	require.NoError(t, s.Add(ctx, tr))

	got := s.Trades()
	require.Len(t, got, 1)
	assert.Equal(t, "T001", got[0].ID)
	assert.Equal(t, 100.0, got[0].GrossPnl)
	assert.Equal(t, 95.0, got[0].NetPnl)
}

func TestStore_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())
	require.NoError(t, s.Add(ctx, sampleTrade("a")))
	err := s.Add(ctx, sampleTrade("a"))
	assert.ErrorIs(t, err, ports.ErrDuplicateEntry)
	assert.Equal(t, 1, s.Len())
}

func TestStore_AddRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())
	tr := sampleTrade("a")
	tr.Size = -1
	assert.ErrorIs(t, s.Add(ctx, tr), ports.ErrInvalidRequest)
	assert.Equal(t, 0, s.Len())
}

func TestStore_RejectsNonFiniteNumbers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())

	tr := sampleTrade("a")
	tr.Fee = math.NaN()
	assert.ErrorIs(t, s.Add(ctx, tr), ports.ErrInvalidRequest)
	tr.Fee = 5
	tr.EntryPrice = math.Inf(1)
	assert.ErrorIs(t, s.Replace(ctx, tr), ports.ErrInvalidRequest)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add(ctx, sampleTrade("a")))
	size := math.Inf(-1)
	assert.ErrorIs(t, s.Update(ctx, "a", domain.TradePatch{Size: &size}), ports.ErrInvalidRequest)
	got, _ := s.Get("a")
	assert.Equal(t, 1000.0, got.Size)
}

func TestStore_RoundTripThroughReopenedSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: path, Logger: ports.NopLogger{}})
	require.NoError(t, err)
	s := newTestStore(t, repo)
	tr := sampleTrade("a")
	tr.Note = "waited for the retest"
	require.NoError(t, s.Add(ctx, tr))
	require.NoError(t, repo.Close())

	reopened, err := sqlite.NewRepository(sqlite.Config{DBPath: path, Logger: ports.NopLogger{}})
	require.NoError(t, err)
	defer reopened.Close()

	res := Load(ctx, reopened, GlobalKey)
	require.Equal(t, LoadOK, res.Status)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, tr.WithDerivedPnl(), res.Trades[0])
}

func TestStore_UpdateNotifiesAfterPersist(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	s := newTestStore(t, kv)
	require.NoError(t, s.Add(ctx, sampleTrade("a")))

	var fromObserver, fromStorage []domain.Trade
	var order []string
	s.Subscribe(func(ctx context.Context, trades []domain.Trade) {
		order = append(order, "first")
		fromObserver = trades
		fromStorage = Load(ctx, kv, GlobalKey).Trades
	})
	s.Subscribe(func(context.Context, []domain.Trade) { order = append(order, "second") })

	exit := 90.0
	require.NoError(t, s.Update(ctx, "a", domain.TradePatch{ExitPrice: &exit}))

	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, fromObserver, 1)
	assert.Equal(t, 90.0, fromObserver[0].ExitPrice)
	assert.Equal(t, -100.0, fromObserver[0].GrossPnl)
	assert.Equal(t, -105.0, fromObserver[0].NetPnl)
	assert.Equal(t, fromObserver, fromStorage)
	assert.Equal(t, fromObserver, Load(ctx, kv, GlobalKey).Trades)
	assert.Equal(t, "2025-01-02T11:05:00.000Z", fromObserver[0].CreatedAt)
}

func TestStore_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())
	require.NoError(t, s.Add(ctx, sampleTrade("a")))

	calls := 0
	s.Subscribe(func(context.Context, []domain.Trade) { calls++ })

	note := "x"
	assert.NoError(t, s.Update(ctx, "missing", domain.TradePatch{Note: &note}))
	assert.NoError(t, s.Delete(ctx, "missing"))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, s.Len())
}

func TestStore_DeleteAndReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())
	require.NoError(t, s.Add(ctx, sampleTrade("a")))
	require.NoError(t, s.Add(ctx, sampleTrade("b")))
	require.NoError(t, s.Add(ctx, sampleTrade("c")))

	require.NoError(t, s.Delete(ctx, "b"))
	ids := func() []string {
		var out []string
		for _, tr := range s.Trades() {
			out = append(out, tr.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "c"}, ids())

	edited := sampleTrade("a")
	edited.Symbol = "BTC-PERP"
	require.NoError(t, s.Replace(ctx, edited))
	assert.Equal(t, []string{"a", "c"}, ids(), "replace keeps position")
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "BTC-PERP", got.Symbol)

	require.NoError(t, s.Replace(ctx, sampleTrade("d")))
	assert.Equal(t, []string{"a", "c", "d"}, ids(), "replace of a new id appends")
}

func TestStore_ObserverCopyIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())
	s.Subscribe(func(_ context.Context, trades []domain.Trade) {
		trades[0].Symbol = "HACKED"
		trades[0].Tags[0] = "HACKED"
	})
	var second []domain.Trade
	s.Subscribe(func(_ context.Context, trades []domain.Trade) { second = trades })

	require.NoError(t, s.Add(ctx, sampleTrade("a")))

	got, _ := s.Get("a")
	assert.Equal(t, "SOL-PERP", got.Symbol)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, "SOL-PERP", second[0].Symbol)

	out := s.Trades()
	out[0].Symbol = "CHANGED"
	got, _ = s.Get("a")
	assert.Equal(t, "SOL-PERP", got.Symbol)
}

func TestStore_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())
	calls := 0
	unsub := s.Subscribe(func(context.Context, []domain.Trade) { calls++ })

	require.NoError(t, s.Add(ctx, sampleTrade("a")))
	unsub()
	unsub()
	require.NoError(t, s.Add(ctx, sampleTrade("b")))
	assert.Equal(t, 1, calls)
}

func TestStore_ReentrantMutationRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewStore())

	var reentrantErr error
	var seenLen int
	s.Subscribe(func(ctx context.Context, trades []domain.Trade) {
		if reentrantErr != nil {
			return
		}
		reentrantErr = s.Add(ctx, sampleTrade("nested"))
		seenLen = s.Len() // reads stay available during notification
	})

	require.NoError(t, s.Add(ctx, sampleTrade("a")))
	assert.ErrorIs(t, reentrantErr, ports.ErrReentrantMutation)
	assert.Equal(t, 1, seenLen)
	assert.Equal(t, 1, s.Len())
}

func TestStore_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	s := newTestStore(t, kv)
	require.NoError(t, s.Add(ctx, sampleTrade("a")))

	calls := 0
	s.Subscribe(func(context.Context, []domain.Trade) { calls++ })

	kv.FailWrites = errors.New("quota exceeded")
	err := s.Add(ctx, sampleTrade("b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrPersistFailed)
	assert.ErrorIs(t, err, kv.FailWrites)
	assert.ErrorIs(t, s.Delete(ctx, "a"), ports.ErrPersistFailed)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("a")
	assert.True(t, ok)
}

func TestStore_Reload(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	s := newTestStore(t, kv)

	other := newTestStore(t, kv)
	require.NoError(t, other.Add(ctx, sampleTrade("a")))
	assert.Equal(t, 0, s.Len())

	var notified int
	s.Subscribe(func(_ context.Context, trades []domain.Trade) { notified = len(trades) })
	res := s.Reload(ctx)
	assert.Equal(t, LoadOK, res.Status)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, notified)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	s, err := NewStore(ctx, Config{KV: kv})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, sampleTrade("")))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
	assert.Len(t, Load(ctx, kv, GlobalKey).Trades, 20)
}
