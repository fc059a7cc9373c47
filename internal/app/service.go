package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradejournal/internal/analytics"
	"tradejournal/internal/domain"
	"tradejournal/internal/journal"
	"tradejournal/internal/ports"
	"tradejournal/internal/trace"
)

// Dashboard is the full derived view pushed to presentation after each change.
type Dashboard struct {
	Profile    string                      `json:"profile,omitempty" yaml:"profile,omitempty"`
	Metrics    *analytics.Snapshot         `json:"metrics" yaml:"metrics"`
	Efficiency analytics.CapitalEfficiency `json:"efficiency" yaml:"efficiency"`
	Radar      []analytics.RadarAxis       `json:"radar" yaml:"radar"`
	Warning    string                      `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// DashboardListener is called with every recomputed dashboard.
type DashboardListener func(ctx context.Context, d Dashboard)

// Options tunes the service. Zero values fall back to defaults.
type Options struct {
	Profile  string           // Explicit profile; empty uses the remembered one
	PageSize int              // Default page size for List
	Now      func() time.Time // Clock for new trades
	NewID    func() string    // ID source for new trades
}

// JournalService orchestrates the trade store, the metrics engine and the
// presentation listeners.
type JournalService struct {
	logger   ports.Logger
	profiles *journal.Profiles
	builder  *journal.Builder
	opts     Options

	// State fields
	mu          sync.RWMutex // Protects the fields below
	store       *journal.Store
	profile     string
	unsubscribe func()
	dashboard   Dashboard

	listenerMu sync.Mutex
	listeners  map[int]DashboardListener
	editors    map[int]func()
	nextID     int
}

// NewJournalService opens the active profile's store and computes the first dashboard.
func NewJournalService(ctx context.Context, logger ports.Logger, kv ports.KeyValueStore, opts Options) (*JournalService, error) {
	if logger == nil || kv == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService: %w", ports.ErrConfigurationError)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = journal.DefaultPerPage
	}

	s := &JournalService{
		logger:    logger,
		profiles:  journal.NewProfiles(kv, logger),
		builder:   journal.NewBuilder(opts.Now, opts.NewID),
		opts:      opts,
		listeners: make(map[int]DashboardListener),
		editors:   make(map[int]func()),
	}

	username, err := s.profiles.Resolve(ctx, opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	if err := s.bind(ctx, username); err != nil {
		return nil, err
	}
	return s, nil
}

// bind opens username's store, subscribes to it and recomputes the dashboard.
func (s *JournalService) bind(ctx context.Context, username string) error {
	store, err := s.profiles.Open(ctx, username, s.opts.NewID)
	if err != nil {
		return fmt.Errorf("failed to open trade store: %w", err)
	}

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.store = store
	s.profile = username
	s.unsubscribe = store.Subscribe(s.onTradesChanged)
	s.mu.Unlock()

	s.logger.Info(ctx, "Trade journal opened", ports.Fields{
		"profile": profileLabel(username),
		"key":     store.Key(),
		"trades":  store.Len(),
	})
	s.onTradesChanged(ctx, store.Trades())
	return nil
}

// onTradesChanged runs synchronously inside the store's notification.
func (s *JournalService) onTradesChanged(ctx context.Context, trades []domain.Trade) {
	ctx, span := trace.StartSpan(ctx, "analytics.ComputeMetrics", trace.Int("trades", len(trades)))
	snapshot := analytics.ComputeMetrics(trades)
	trace.End(span, nil)

	s.mu.Lock()
	d := Dashboard{
		Profile:    s.profile,
		Metrics:    snapshot,
		Efficiency: analytics.Efficiency(snapshot),
		Radar:      analytics.Radar(snapshot),
	}
	if res := s.store.LastLoad(); res.Degraded() {
		d.Warning = fmt.Sprintf("stored trades could not be read (%s); showing an empty journal", res.Status)
	}
	s.dashboard = d
	s.mu.Unlock()

	s.logger.Debug(ctx, "Dashboard recomputed", ports.Fields{"trades": snapshot.Total, "net": snapshot.TotalNet})

	s.listenerMu.Lock()
	listeners := make([]DashboardListener, 0, len(s.listeners))
	for _, id := range sortedKeys(s.listeners) {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(ctx, d)
	}
}

func (s *JournalService) current() *journal.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Profile returns the active profile, empty for the global collection.
func (s *JournalService) Profile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Profiles exposes profile management.
func (s *JournalService) Profiles() *journal.Profiles { return s.profiles }

// Dashboard returns the latest computed dashboard.
func (s *JournalService) Dashboard() Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

// Metrics returns the latest snapshot.
func (s *JournalService) Metrics() *analytics.Snapshot {
	return s.Dashboard().Metrics
}

// Trades returns the current collection in insertion order.
func (s *JournalService) Trades() []domain.Trade {
	return s.current().Trades()
}

// Trade returns one trade or ErrNotFound.
func (s *JournalService) Trade(tradeID string) (domain.Trade, error) {
	t, ok := s.current().Get(tradeID)
	if !ok {
		return domain.Trade{}, fmt.Errorf("trade %s: %w", tradeID, ports.ErrNotFound)
	}
	return t, nil
}

// List runs a history query over the current collection.
func (s *JournalService) List(q journal.Query) (journal.Result, error) {
	if q.PerPage <= 0 {
		q.PerPage = s.opts.PageSize
	}
	return q.Run(s.current().Trades())
}

// Save builds a trade from editor input and upserts it. A non-empty editID
// edits that trade, keeping its id and createdAt.
func (s *JournalService) Save(ctx context.Context, in journal.TradeInput, editID string) (t domain.Trade, err error) {
	ctx, span := trace.StartSpan(ctx, "journal.Replace", trace.String("id", editID))
	defer func() { trace.End(span, err) }()

	store := s.current()
	var editing *domain.Trade
	if editID != "" {
		existing, ok := store.Get(editID)
		if !ok {
			return domain.Trade{}, fmt.Errorf("trade %s: %w", editID, ports.ErrNotFound)
		}
		editing = &existing
	}

	t = s.builder.NewTrade(in, editing)
	if err = store.Replace(ctx, t); err != nil {
		s.logger.Error(ctx, err, "Failed to save trade", ports.Fields{"id": t.ID})
		return domain.Trade{}, err
	}
	saved, err := committed(store, t.ID)
	if err != nil {
		return domain.Trade{}, err
	}
	s.logger.Info(ctx, "Trade saved", ports.Fields{"id": saved.ID, "symbol": saved.Symbol, "net": saved.NetPnl})
	return saved, nil
}

// Add inserts a fully formed trade, e.g. from an import.
func (s *JournalService) Add(ctx context.Context, t domain.Trade) (err error) {
	ctx, span := trace.StartSpan(ctx, "journal.Add", trace.String("symbol", t.Symbol))
	defer func() { trace.End(span, err) }()

	if err = s.current().Add(ctx, t); err != nil {
		s.logger.Error(ctx, err, "Failed to add trade", ports.Fields{"id": t.ID})
	}
	return err
}

// Update patches a trade. Unlike the store, an unknown id is reported as ErrNotFound.
func (s *JournalService) Update(ctx context.Context, tradeID string, patch domain.TradePatch) (t domain.Trade, err error) {
	ctx, span := trace.StartSpan(ctx, "journal.Update", trace.String("id", tradeID))
	defer func() { trace.End(span, err) }()

	store := s.current()
	if _, ok := store.Get(tradeID); !ok {
		return domain.Trade{}, fmt.Errorf("trade %s: %w", tradeID, ports.ErrNotFound)
	}
	if err = store.Update(ctx, tradeID, patch); err != nil {
		s.logger.Error(ctx, err, "Failed to update trade", ports.Fields{"id": tradeID})
		return domain.Trade{}, err
	}
	return committed(store, tradeID)
}

// Delete removes a trade, reporting ErrNotFound for an unknown id.
func (s *JournalService) Delete(ctx context.Context, tradeID string) (err error) {
	ctx, span := trace.StartSpan(ctx, "journal.Delete", trace.String("id", tradeID))
	defer func() { trace.End(span, err) }()

	store := s.current()
	if _, ok := store.Get(tradeID); !ok {
		return fmt.Errorf("trade %s: %w", tradeID, ports.ErrNotFound)
	}
	if err = store.Delete(ctx, tradeID); err != nil {
		s.logger.Error(ctx, err, "Failed to delete trade", ports.Fields{"id": tradeID})
		return err
	}
	s.logger.Info(ctx, "Trade deleted", ports.Fields{"id": tradeID})
	return nil
}

// SwitchProfile remembers username and rebinds to its collection. An empty
// username clears the remembered profile and returns to the global collection.
func (s *JournalService) SwitchProfile(ctx context.Context, username string) (err error) {
	ctx, span := trace.StartSpan(ctx, "journal.SwitchProfile")
	defer func() { trace.End(span, err) }()

	if username == "" {
		if err = s.profiles.ClearCurrent(ctx); err != nil {
			return err
		}
		return s.bind(ctx, "")
	}
	u, err := journal.NormalizeUsername(username)
	if err != nil {
		return err
	}
	if err = s.profiles.SetCurrent(ctx, u); err != nil {
		return err
	}
	return s.bind(ctx, u)
}

// Reload re-reads the active collection from storage.
func (s *JournalService) Reload(ctx context.Context) journal.LoadResult {
	return s.current().Reload(ctx)
}

// OnDashboard registers a listener for recomputed dashboards.
func (s *JournalService) OnDashboard(fn DashboardListener) (unsubscribe func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.listeners, id)
	}
}

// OnOpenEditor registers a handler for the "open trade editor" signal.
func (s *JournalService) OnOpenEditor(fn func()) (unsubscribe func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.nextID++
	id := s.nextID
	s.editors[id] = fn
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.editors, id)
	}
}

// RequestEditor broadcasts the "open trade editor" signal and returns how many
// handlers received it. Nothing in the journal depends on it being observed.
func (s *JournalService) RequestEditor(ctx context.Context) int {
	s.listenerMu.Lock()
	handlers := make([]func(), 0, len(s.editors))
	for _, id := range sortedKeys(s.editors) {
		handlers = append(handlers, s.editors[id])
	}
	s.listenerMu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	s.logger.Debug(ctx, "Editor requested", ports.Fields{"handlers": len(handlers)})
	return len(handlers)
}

// Close detaches from the store.
func (s *JournalService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// committed reads back a trade after a write. A delete from another caller
// can land in between, so a missing trade is reported as ErrNotFound.
func committed(store *journal.Store, tradeID string) (domain.Trade, error) {
	t, ok := store.Get(tradeID)
	if !ok {
		return domain.Trade{}, fmt.Errorf("trade %s removed concurrently: %w", tradeID, ports.ErrNotFound)
	}
	return t, nil
}

func profileLabel(username string) string {
	if username == "" {
		return "(global)"
	}
	return username
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
