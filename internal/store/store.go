// ABOUTME: Persisted preference store with async hydration and ordered write-through
// ABOUTME: Holds the subscription set, active feed pointer, and hydration state

package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harper/feedkeep/internal/registry"
)

// Storage keys. Values are always JSON so any backend that round-trips
// JSON documents can serve as a Storage.
const (
	subscriptionsKey = "subscriptions"
	activeFeedKey    = "active_feed"
)

// writeTimeout bounds a single storage operation on the flusher.
const writeTimeout = 10 * time.Second

// EventType identifies what changed in a store notification.
type EventType int

const (
	// EventHydrated fires once, when the initial load completes.
	EventHydrated EventType = iota
	// EventSubscriptions fires when the subscription set changes.
	EventSubscriptions
	// EventActiveFeed fires when the active feed pointer changes.
	EventActiveFeed
)

// Event is a change notification delivered to subscribers.
type Event struct {
	Type EventType
}

type writeOp struct {
	key    string
	value  []byte
	delete bool
}

// Store is the persisted preference store. In-memory state is
// authoritative for the running session: every mutation applies in memory
// first, then a write-through is queued on a single flusher goroutine so
// storage sees mutations in invocation order. Storage failures are logged
// and swallowed; they cost durability, never in-session correctness.
//
// Construct one per application instance with New and inject the Storage
// backend; there is deliberately no package-level singleton.
type Store struct {
	storage Storage
	log     *logrus.Entry

	mu          sync.RWMutex
	set         *registry.Set
	activeFeed  string
	hydrated    bool
	initialized bool
	closed      bool
	watchers    map[int]chan Event
	nextWatch   int

	// pending is the write-through queue, guarded by mu. It is a slice
	// rather than a bounded channel so queueing a write never blocks a
	// mutation, no matter how slow the backend is.
	pending []writeOp

	hydratedCh chan struct{}
	wake       chan struct{}
	flusherEnd chan struct{}
}

// New creates a Store backed by the given storage and begins hydrating
// from it in the background. Until hydration completes the store serves
// an empty subscription set and Hydrated reports false.
func New(storage Storage) *Store {
	s := &Store{
		storage:    storage,
		log:        logrus.WithField("component", "store"),
		set:        registry.NewSet(),
		watchers:   make(map[int]chan Event),
		hydratedCh: make(chan struct{}),
		wake:       make(chan struct{}, 1),
		flusherEnd: make(chan struct{}),
	}

	go s.flusher()
	go s.hydrate()

	return s
}

// hydrate performs the one-shot initial load. A read failure degrades to
// the empty defaults; the store still reports hydrated so callers are
// never blocked on a broken backend.
func (s *Store) hydrate() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var loaded *registry.Set
	data, err := s.storage.Get(ctx, subscriptionsKey)
	if err != nil {
		s.log.WithError(err).Warn("failed to load subscriptions, starting empty")
		loaded = registry.NewSet()
	} else {
		loaded = registry.FromStorage(data)
	}

	var active string
	if raw, err := s.storage.Get(ctx, activeFeedKey); err == nil && raw != nil {
		// Ignore a malformed pointer; a dangling or missing active feed
		// is already a legal state.
		_ = json.Unmarshal(raw, &active)
	}

	s.mu.Lock()
	// Mutations that raced ahead of hydration win on conflict: loaded
	// subscriptions merge in idempotently underneath them.
	for _, sub := range loaded.All() {
		s.set.Add(sub)
	}
	if s.activeFeed == "" {
		s.activeFeed = active
	}
	s.hydrated = true
	s.mu.Unlock()

	close(s.hydratedCh)
	s.notify(Event{Type: EventHydrated})
}

// flusher applies queued write-throughs one at a time, preserving the
// order mutations were made in. It exits after Close once the queue
// drains.
func (s *Store) flusher() {
	defer close(s.flusherEnd)
	for {
		s.mu.Lock()
		ops := s.pending
		s.pending = nil
		done := s.closed
		s.mu.Unlock()

		for _, op := range ops {
			s.apply(op)
		}

		if done {
			// closed stops enqueue, so nothing can be queued after the
			// snapshot above. Safe to exit.
			return
		}
		<-s.wake
	}
}

// apply performs a single write-through against the backend.
func (s *Store) apply(op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	var err error
	if op.delete {
		err = s.storage.Delete(ctx, op.key)
	} else {
		err = s.storage.Set(ctx, op.key, op.value)
	}
	if err != nil {
		s.log.WithError(err).WithField("key", op.key).
			Warn("storage write failed, in-memory state retained")
	}
}

// enqueue schedules a write-through. Must be called with s.mu held so
// queue order matches mutation order. The append never blocks, so a
// slow backend cannot stall mutations or the readers waiting on the
// lock behind them. Writes after Close are dropped.
func (s *Store) enqueue(op writeOp) {
	if s.closed {
		return
	}
	s.pending = append(s.pending, op)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// persistSetLocked queues the current subscription set. Caller holds s.mu.
func (s *Store) persistSetLocked() {
	data, err := registry.ToStorage(s.set)
	if err != nil {
		s.log.WithError(err).Warn("failed to encode subscriptions")
		return
	}
	s.enqueue(writeOp{key: subscriptionsKey, value: data})
}

// Hydrated reports whether the initial load from storage has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Initialized reports the session-scoped UI readiness flag. Unlike the
// hydration flag it is never persisted.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// SetInitialized updates the session-scoped UI readiness flag.
func (s *Store) SetInitialized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = v
}

// WaitHydrated blocks until hydration completes or the context ends.
func (s *Store) WaitHydrated(ctx context.Context) error {
	select {
	case <-s.hydratedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscriptions returns a snapshot of the current subscription set.
func (s *Store) Subscriptions() *registry.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Clone()
}

// ActiveFeed returns the active feed pointer, which may be empty or
// dangle past a removed subscription.
func (s *Store) ActiveFeed() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeFeed
}

// ActiveSubscription resolves the active feed pointer against the set.
// A dangling or empty pointer resolves to nil, never an error.
func (s *Store) ActiveSubscription() *registry.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeFeed == "" {
		return nil
	}
	return s.set.Get(s.activeFeed)
}

// AddSubscription inserts a subscription and persists the set. Returns
// false without persisting if the key is empty or already present.
func (s *Store) AddSubscription(sub *registry.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set.Add(sub) {
		return false
	}
	s.persistSetLocked()
	s.notifyLocked(Event{Type: EventSubscriptions})
	return true
}

// RemoveSubscription removes the subscription with the given canonical
// key and persists the set. The active feed pointer is left as-is even
// when it referenced the removed subscription; readers already treat a
// dangling pointer as "none selected".
func (s *Store) RemoveSubscription(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set.Remove(key) {
		return false
	}
	s.persistSetLocked()
	s.notifyLocked(Event{Type: EventSubscriptions})
	return true
}

// ReplaceSet swaps in a new subscription set wholesale and persists it.
// Used by OPML import, which merges into a snapshot and applies the
// result as one mutation.
func (s *Store) ReplaceSet(set *registry.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = set.Clone()
	s.persistSetLocked()
	s.notifyLocked(Event{Type: EventSubscriptions})
}

// SetActiveFeed updates the active feed pointer and persists it. The key
// is not validated against set membership; see ActiveSubscription.
func (s *Store) SetActiveFeed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeFeed = key
	if key == "" {
		s.enqueue(writeOp{key: activeFeedKey, delete: true})
	} else {
		value, _ := json.Marshal(key)
		s.enqueue(writeOp{key: activeFeedKey, value: value})
	}
	s.notifyLocked(Event{Type: EventActiveFeed})
}

// Clear empties the subscription set and the active feed pointer and
// removes both from storage.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Clear()
	s.activeFeed = ""
	s.enqueue(writeOp{key: subscriptionsKey, delete: true})
	s.enqueue(writeOp{key: activeFeedKey, delete: true})
	s.notifyLocked(Event{Type: EventSubscriptions})
	s.notifyLocked(Event{Type: EventActiveFeed})
}

// Subscribe registers for change notifications. The returned cancel func
// must be called to release the subscription. Slow subscribers miss
// events rather than blocking mutations.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatch
	s.nextWatch++
	ch := make(chan Event, 16)
	s.watchers[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Store) notify(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(e)
}

// notifyLocked fans an event out to watchers. Caller holds s.mu.
func (s *Store) notifyLocked(e Event) {
	for _, ch := range s.watchers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close stops accepting writes and drains any queued write-throughs.
// Hydration, if still in flight, finishes on its own and its result is
// discarded safely.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.flusherEnd
	return nil
}
