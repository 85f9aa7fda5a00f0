// ABOUTME: Subscription registry with canonical-key deduplication
// ABOUTME: Insertion-ordered unique set of feed subscriptions

package registry

import (
	"time"

	"github.com/google/uuid"

	"github.com/harper/feedkeep/internal/canonical"
)

// Subscription represents a single feed subscription. Key is the canonical
// identity; URL is the original URL as supplied by the user or an OPML
// file, kept for display and export fidelity.
type Subscription struct {
	ID      string     `json:"id"`
	Key     string     `json:"key"`
	URL     string     `json:"url"`
	Title   string     `json:"title,omitempty"`
	AddedAt *time.Time `json:"added_at,omitempty"`
}

// NewSubscription creates a Subscription from a raw URL. The canonical key
// is derived from the URL; an empty key means the URL cannot identify a feed.
func NewSubscription(rawURL, title string) *Subscription {
	now := time.Now()
	return &Subscription{
		ID:      uuid.New().String(),
		Key:     canonical.Canonicalize(rawURL),
		URL:     rawURL,
		Title:   title,
		AddedAt: &now,
	}
}

// Set is a collection of subscriptions unique by canonical key. Insertion
// order is preserved so serialization is stable within a process run.
// Set is not safe for concurrent use; the store serializes access to it.
type Set struct {
	byKey map[string]*Subscription
	order []string
}

// NewSet creates an empty subscription set.
func NewSet() *Set {
	return &Set{
		byKey: make(map[string]*Subscription),
	}
}

// Add inserts a subscription keyed by its canonical key. Insertion is
// idempotent: an existing subscription with the same key is left untouched
// so metadata already attached to it survives re-import. Returns true if
// the subscription was inserted, false if it was already present or its
// key is empty.
func (s *Set) Add(sub *Subscription) bool {
	if sub == nil || sub.Key == "" {
		return false
	}
	if _, exists := s.byKey[sub.Key]; exists {
		return false
	}
	s.byKey[sub.Key] = sub
	s.order = append(s.order, sub.Key)
	return true
}

// Remove deletes the subscription with the given canonical key.
// Returns true if a subscription was removed.
func (s *Set) Remove(key string) bool {
	if _, exists := s.byKey[key]; !exists {
		return false
	}
	delete(s.byKey, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the subscription for a canonical key, or nil.
func (s *Set) Get(key string) *Subscription {
	return s.byKey[key]
}

// Has reports whether a subscription with the given key exists.
func (s *Set) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Len returns the number of subscriptions.
func (s *Set) Len() int {
	return len(s.byKey)
}

// All returns subscriptions in insertion order.
func (s *Set) All() []*Subscription {
	subs := make([]*Subscription, 0, len(s.order))
	for _, key := range s.order {
		subs = append(subs, s.byKey[key])
	}
	return subs
}

// Keys returns canonical keys in insertion order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Clear removes all subscriptions.
func (s *Set) Clear() {
	s.byKey = make(map[string]*Subscription)
	s.order = nil
}

// Clone returns a deep-enough copy for snapshot reads. Subscription values
// are shared; callers must not mutate them.
func (s *Set) Clone() *Set {
	c := NewSet()
	for _, key := range s.order {
		c.byKey[key] = s.byKey[key]
		c.order = append(c.order, key)
	}
	return c
}
