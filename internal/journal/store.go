package journal

import (
	"context"
	"fmt"
	"sync"

	"tradejournal/internal/domain"
	"tradejournal/internal/id"
	"tradejournal/internal/ports"
)

// Observer receives the full collection after every mutation. The slice is the
// observer's own copy. The context carries a marker for the notifying store:
// passing it to a mutating call on the same store returns ErrReentrantMutation.
type Observer func(ctx context.Context, trades []domain.Trade)

// Config holds the dependencies of a Store.
type Config struct {
	KV     ports.KeyValueStore
	Key    string        // Storage key, GlobalKey when empty
	Logger ports.Logger  // NopLogger when nil
	NewID  func() string // id.New when nil
}

type observerEntry struct {
	id uint64
	fn Observer
}

// Store owns the canonical trade collection, persists it on every change and
// broadcasts the new collection to its observers.
type Store struct {
	kv     ports.KeyValueStore
	key    string
	logger ports.Logger
	newID  func() string

	// mu serializes the read-modify-persist-notify sequence.
	mu sync.Mutex

	stateMu  sync.RWMutex
	trades   []domain.Trade
	lastLoad LoadResult

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID uint64
}

type notifyingKey struct{}

// NewStore builds a store and performs the initial load. A corrupt or unreadable
// blob yields an empty store and a single warning.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.KV == nil {
		return nil, fmt.Errorf("key/value store is required: %w", ports.ErrConfigurationError)
	}
	s := &Store{
		kv:     cfg.KV,
		key:    cfg.Key,
		logger: cfg.Logger,
		newID:  cfg.NewID,
	}
	if s.key == "" {
		s.key = GlobalKey
	}
	if s.logger == nil {
		s.logger = ports.NopLogger{}
	}
	if s.newID == nil {
		s.newID = id.New
	}

	res := Load(ctx, s.kv, s.key)
	s.setState(res.Trades, res)
	s.logLoad(ctx, res)
	return s, nil
}

// Key returns the storage key this store persists to.
func (s *Store) Key() string { return s.key }

// LastLoad returns the result of the most recent load from storage. Once a
// write has been committed the stored blob is known good and the status is LoadOK.
func (s *Store) LastLoad() LoadResult {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastLoad
}

// Trades returns a copy of the current collection in insertion order.
func (s *Store) Trades() []domain.Trade {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return cloneAll(s.trades)
}

// Get returns the trade with the given id.
func (s *Store) Get(tradeID string) (domain.Trade, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if i := indexOf(s.trades, tradeID); i >= 0 {
		return s.trades[i].Clone(), true
	}
	return domain.Trade{}, false
}

// Len returns the number of trades held.
func (s *Store) Len() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return len(s.trades)
}

// Add appends a new trade. An empty ID is filled with a fresh ULID; an ID
// already present returns ErrDuplicateEntry.
func (s *Store) Add(ctx context.Context, t domain.Trade) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.newID()
	}
	t, err := prepare(t)
	if err != nil {
		return err
	}
	current := s.snapshot()
	if indexOf(current, t.ID) >= 0 {
		return fmt.Errorf("add trade %s: %w", t.ID, ports.ErrDuplicateEntry)
	}

	return s.commit(ctx, append(current, t), "Trade added", ports.Fields{"id": t.ID, "symbol": t.Symbol})
}

// Update merges patch onto the trade with the given id and re-derives its PnL.
// An unknown id is a silent no-op.
func (s *Store) Update(ctx context.Context, tradeID string, patch domain.TradePatch) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot()
	i := indexOf(current, tradeID)
	if i < 0 {
		s.logger.Debug(ctx, "Update ignored, trade not found", ports.Fields{"id": tradeID})
		return nil
	}
	updated, err := prepare(patch.Apply(current[i]))
	if err != nil {
		return err
	}
	current[i] = updated

	return s.commit(ctx, current, "Trade updated", ports.Fields{"id": tradeID})
}

// Delete removes the trade with the given id. An unknown id is a silent no-op.
func (s *Store) Delete(ctx context.Context, tradeID string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot()
	i := indexOf(current, tradeID)
	if i < 0 {
		s.logger.Debug(ctx, "Delete ignored, trade not found", ports.Fields{"id": tradeID})
		return nil
	}
	next := append(current[:i:i], current[i+1:]...)

	return s.commit(ctx, next, "Trade deleted", ports.Fields{"id": tradeID})
}

// Replace upserts by id: an existing trade is replaced in place, otherwise the
// trade is appended. Both the create and edit flows of the editor land here.
func (s *Store) Replace(ctx context.Context, t domain.Trade) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.newID()
	}
	t, err := prepare(t)
	if err != nil {
		return err
	}
	current := s.snapshot()
	if i := indexOf(current, t.ID); i >= 0 {
		current[i] = t
	} else {
		current = append(current, t)
	}

	return s.commit(ctx, current, "Trade saved", ports.Fields{"id": t.ID, "symbol": t.Symbol})
}

// Reload re-reads persistence into memory and notifies observers.
func (s *Store) Reload(ctx context.Context) LoadResult {
	if err := s.guard(ctx); err != nil {
		return LoadResult{Trades: s.Trades(), Status: LoadUnavailable, Reason: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Load(ctx, s.kv, s.key)
	s.logLoad(ctx, res)
	s.setState(res.Trades, res)
	s.notify(ctx, res.Trades)
	return res
}

// Subscribe registers an observer. The returned function deregisters it and may
// be called more than once.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	s.nextObsID++
	entryID := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: entryID, fn: fn})
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, o := range s.observers {
				if o.id == entryID {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// commit persists next, swaps it in and notifies. Callers hold mu. On a
// persist failure the in-memory collection is left untouched.
func (s *Store) commit(ctx context.Context, next []domain.Trade, msg string, fields ports.Fields) error {
	blob, err := encode(next)
	if err != nil {
		return fmt.Errorf("encode trades: %w: %w", ports.ErrPersistFailed, err)
	}
	if err := s.kv.Set(ctx, s.key, blob); err != nil {
		s.logger.Error(ctx, err, "Failed to persist trades", ports.Fields{"key": s.key})
		return fmt.Errorf("persist %q: %w: %w", s.key, ports.ErrPersistFailed, err)
	}
	s.setState(next, LoadResult{Status: LoadOK})
	fields["count"] = len(next)
	s.logger.Debug(ctx, msg, fields)
	s.notify(ctx, next)
	return nil
}

func (s *Store) notify(ctx context.Context, trades []domain.Trade) {
	s.obsMu.Lock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	octx := context.WithValue(ctx, notifyingKey{}, s)
	for _, o := range observers {
		o.fn(octx, cloneAll(trades))
	}
}

func (s *Store) guard(ctx context.Context) error {
	if owner, ok := ctx.Value(notifyingKey{}).(*Store); ok && owner == s {
		return ports.ErrReentrantMutation
	}
	return nil
}

func (s *Store) snapshot() []domain.Trade {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return cloneAll(s.trades)
}

// setState swaps in a new collection, and the load result that produced it if given.
func (s *Store) setState(trades []domain.Trade, loaded ...LoadResult) {
	s.stateMu.Lock()
	s.trades = cloneAll(trades)
	if len(loaded) > 0 {
		s.lastLoad = loaded[0]
	}
	s.stateMu.Unlock()
}

func (s *Store) logLoad(ctx context.Context, res LoadResult) {
	fields := ports.Fields{"key": s.key, "status": res.Status.String(), "count": len(res.Trades)}
	if res.Degraded() {
		s.logger.Warn(ctx, "Stored trades could not be read, starting empty", fields, ports.Fields{"reason": res.Reason})
		return
	}
	s.logger.Debug(ctx, "Trades loaded", fields)
}

// prepare validates t and recomputes its derived PnL.
func prepare(t domain.Trade) (domain.Trade, error) {
	if err := t.Validate(); err != nil {
		return domain.Trade{}, fmt.Errorf("trade %s: %w: %w", t.ID, ports.ErrInvalidRequest, err)
	}
	t = t.Clone().WithDerivedPnl()
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

func indexOf(trades []domain.Trade, tradeID string) int {
	for i := range trades {
		if trades[i].ID == tradeID {
			return i
		}
	}
	return -1
}

func cloneAll(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, len(trades))
	for i, t := range trades {
		out[i] = t.Clone()
	}
	return out
}
