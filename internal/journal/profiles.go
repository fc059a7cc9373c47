package journal

import (
	"context"
	"fmt"
	"strings"

	"tradejournal/internal/ports"
)

// Storage layout shared with the browser dashboard.
const (
	StoragePrefix = "deriverse:"
	GlobalKey     = StoragePrefix + "trades"
	UsernameKey   = StoragePrefix + "username"
	profileSuffix = ":trades"
)

// Profiles manages the optional per-username collections. Each profile lives
// under its own key and is never reconciled with the global collection.
type Profiles struct {
	kv     ports.KeyValueStore
	logger ports.Logger
}

// NewProfiles returns a profile manager over kv.
func NewProfiles(kv ports.KeyValueStore, logger ports.Logger) *Profiles {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Profiles{kv: kv, logger: logger}
}

// NormalizeUsername trims the name and rejects ones that cannot form a key.
func NormalizeUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", fmt.Errorf("username is empty: %w", ports.ErrInvalidRequest)
	}
	if strings.Contains(u, ":") {
		return "", fmt.Errorf("username %q must not contain ':': %w", u, ports.ErrInvalidRequest)
	}
	return u, nil
}

// Key returns the storage key for username. An empty username maps to GlobalKey.
func (p *Profiles) Key(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return GlobalKey, nil
	}
	u, err := NormalizeUsername(username)
	if err != nil {
		return "", err
	}
	return StoragePrefix + u + profileSuffix, nil
}

// Current returns the remembered username, if any.
func (p *Profiles) Current(ctx context.Context) (string, bool, error) {
	v, found, err := p.kv.Get(ctx, UsernameKey)
	if err != nil {
		return "", false, fmt.Errorf("read current profile: %w", err)
	}
	v = strings.TrimSpace(v)
	if !found || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// SetCurrent remembers username as the active profile.
func (p *Profiles) SetCurrent(ctx context.Context, username string) error {
	u, err := NormalizeUsername(username)
	if err != nil {
		return err
	}
	if err := p.kv.Set(ctx, UsernameKey, u); err != nil {
		return fmt.Errorf("store current profile: %w", err)
	}
	p.logger.Info(ctx, "Switched profile", ports.Fields{"username": u})
	return nil
}

// ClearCurrent forgets the active profile; the global collection applies again.
func (p *Profiles) ClearCurrent(ctx context.Context) error {
	if err := p.kv.Delete(ctx, UsernameKey); err != nil {
		return fmt.Errorf("clear current profile: %w", err)
	}
	p.logger.Info(ctx, "Cleared profile")
	return nil
}

// List returns the usernames that have a stored collection, sorted.
func (p *Profiles) List(ctx context.Context) ([]string, error) {
	keys, err := p.kv.Keys(ctx, StoragePrefix)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		rest := strings.TrimPrefix(k, StoragePrefix)
		if name, ok := strings.CutSuffix(rest, profileSuffix); ok && name != "" && !strings.Contains(name, ":") {
			names = append(names, name)
		}
	}
	return names, nil
}

// Resolve picks the username to open: explicit wins, then the remembered one.
// An empty result means the global collection.
func (p *Profiles) Resolve(ctx context.Context, explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return NormalizeUsername(explicit)
	}
	u, _, err := p.Current(ctx)
	return u, err
}

// Open returns a store bound to username's collection, or the global one for "".
func (p *Profiles) Open(ctx context.Context, username string, newID func() string) (*Store, error) {
	key, err := p.Key(username)
	if err != nil {
		return nil, err
	}
	return NewStore(ctx, Config{KV: p.kv, Key: key, Logger: p.logger, NewID: newID})
}
