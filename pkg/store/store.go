// Package store owns the canonical in-memory menu forest. It loads the forest
// from a storage.KV (or the seed), writes the whole forest back on every
// change and notifies subscribers with the latest value.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/storage"
)

const (
	// DefaultKey is the storage key the forest lives under.
	DefaultKey = "data"
)

// ErrUnchanged is returned by an update function to leave the forest as is.
// Update treats it as success and neither persists nor notifies.
var ErrUnchanged = errors.New("forest unchanged")

// Listener receives the full forest after every replace.
type Listener func(menu.Forest)

// Store holds the forest and its persistence.
type Store struct {
	// wmu serializes commits together with their notification, so listeners
	// see forests in commit order. mu only guards reads of forest.
	wmu    sync.Mutex
	mu     sync.Mutex
	kv     storage.KV
	key    string
	seed   string
	forest menu.Forest

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// Option configures the Store.
type Option func(*Store)

// WithKey sets the storage key. If not specified, DefaultKey ("data") is used.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithSeed sets the nested JSON object used when storage is empty.
// If not specified, menu.DefaultSeed is used.
func WithSeed(seed string) Option {
	return func(s *Store) { s.seed = seed }
}

// New creates a store over kv. Call Initialize before use.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		key:       DefaultKey,
		seed:      menu.DefaultSeed,
		forest:    menu.Forest{},
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted forest, or builds it from the seed when
// nothing is stored. The seed forest is not written until the first change.
func (s *Store) Initialize(ctx context.Context) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var f menu.Forest
	b, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if f, err = menu.BuildTree([]byte(s.seed), menu.RootID); err != nil {
			return fmt.Errorf("build seed forest: %w", err)
		}
		slog.Info("initialized forest from seed", "key", s.key, "nodes", f.Count())
	case err != nil:
		return fmt.Errorf("load forest %q: %w", s.key, err)
	default:
		if f, err = menu.Parse(b); err != nil {
			return fmt.Errorf("load forest %q: %w", s.key, err)
		}
		slog.Info("loaded forest", "key", s.key, "nodes", f.Count(), "bytes", len(b))
	}

	s.set(f)
	s.notify(f)
	return nil
}

// Current returns the current forest. The value is shared, not copied:
// callers must not mutate it outside Update.
func (s *Store) Current() menu.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest
}

// Replace persists f as the whole forest and notifies listeners.
func (s *Store) Replace(ctx context.Context, f menu.Forest) error {
	return s.Update(ctx, func(menu.Forest) (menu.Forest, error) {
		return f, nil
	})
}

// Update runs fn against the current forest and replaces it with the result.
// Concurrent updates are serialized, and each one notifies listeners before
// the next commits. When fn fails, or the write to storage fails, the
// in-memory forest keeps its previous value. Listeners must not call Update.
func (s *Store) Update(ctx context.Context, fn func(menu.Forest) (menu.Forest, error)) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	// fn may mutate nodes in place, so it gets a copy. A failed write
	// then cannot leave the live forest half changed.
	next, err := fn(s.Current().Clone())
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if next == nil {
		next = menu.Forest{}
	}

	b, err := next.Bytes()
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		slog.Error("failed to persist forest", "key", s.key, "error", err)
		return fmt.Errorf("persist forest %q: %w", s.key, err)
	}
	s.set(next)

	slog.Debug("forest persisted", "key", s.key, "bytes", len(b))
	s.notify(next)
	return nil
}

func (s *Store) set(f menu.Forest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest = f
}

// Reset rebuilds the forest from the seed and persists it.
func (s *Store) Reset(ctx context.Context) error {
	f, err := menu.BuildTree([]byte(s.seed), menu.RootID)
	if err != nil {
		return fmt.Errorf("build seed forest: %w", err)
	}
	return s.Replace(ctx, f)
}

// Subscribe registers fn and immediately calls it with the current forest.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	// no commit can land between registering and the first delivery
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	fn(s.Current())

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(f menu.Forest) {
	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.RUnlock()

	for _, l := range listeners {
		l(f)
	}
}
