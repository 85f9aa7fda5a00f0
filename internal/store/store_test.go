// ABOUTME: Test suite for the persisted preference store
// ABOUTME: Covers hydration, write-through ordering, failure tolerance, and the active feed pointer

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harper/feedkeep/internal/registry"
)

func newTestStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	s := New(storage)
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitHydrated(ctx); err != nil {
		t.Fatalf("WaitHydrated() error = %v", err)
	}
	return s
}

func TestStore_HydratesFromStorage(t *testing.T) {
	storage := NewMemoryStorage()
	seed := registry.NewSet()
	seed.Add(registry.NewSubscription("https://a.com/rss", "A"))
	seed.Add(registry.NewSubscription("https://b.com/rss", "B"))
	data, err := registry.ToStorage(seed)
	if err != nil {
		t.Fatalf("ToStorage() error = %v", err)
	}
	if err := storage.Set(context.Background(), subscriptionsKey, data); err != nil {
		t.Fatalf("storage.Set() error = %v", err)
	}

	s := newTestStore(t, storage)

	if !s.Hydrated() {
		t.Error("Hydrated() = false after WaitHydrated")
	}
	set := s.Subscriptions()
	if set.Len() != 2 {
		t.Fatalf("Subscriptions().Len() = %d, want 2", set.Len())
	}
	if !set.Has("a.com/rss") || !set.Has("b.com/rss") {
		t.Errorf("hydrated set missing expected keys, got %v", set.Keys())
	}
}

func TestStore_HydratesEmptyOnReadFailure(t *testing.T) {
	storage := NewMemoryStorage()
	storage.GetErr = errors.New("storage disabled")

	s := newTestStore(t, storage)

	if !s.Hydrated() {
		t.Error("Hydrated() = false, want true even when the read failed")
	}
	if got := s.Subscriptions().Len(); got != 0 {
		t.Errorf("Subscriptions().Len() = %d, want 0", got)
	}
}

func TestStore_AddPersistsWriteThrough(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)

	if !s.AddSubscription(registry.NewSubscription("https://a.com/rss", "A")) {
		t.Fatal("AddSubscription() = false, want true")
	}
	if s.AddSubscription(registry.NewSubscription("http://a.com/rss/", "dup")) {
		t.Error("AddSubscription() = true for duplicate key, want false")
	}

	// Close drains the write queue, after which storage must hold the set.
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := storage.Get(context.Background(), subscriptionsKey)
	if err != nil {
		t.Fatalf("storage.Get() error = %v", err)
	}
	persisted := registry.FromStorage(data)
	if persisted.Len() != 1 {
		t.Fatalf("persisted Len() = %d, want 1", persisted.Len())
	}
	if !persisted.Has("a.com/rss") {
		t.Errorf("persisted set missing key %q", "a.com/rss")
	}
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)
	storage.SetErr = errors.New("quota exceeded")

	if !s.AddSubscription(registry.NewSubscription("https://a.com/rss", "A")) {
		t.Fatal("AddSubscription() = false, want true")
	}

	// The in-memory state stays authoritative for the session.
	if got := s.Subscriptions().Len(); got != 1 {
		t.Errorf("Subscriptions().Len() = %d, want 1 despite write failure", got)
	}
}

func TestStore_MutationOrderReachesStorage(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)

	s.AddSubscription(registry.NewSubscription("https://a.com/rss", ""))
	s.AddSubscription(registry.NewSubscription("https://b.com/rss", ""))
	s.RemoveSubscription("a.com/rss")

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := storage.Get(context.Background(), subscriptionsKey)
	if err != nil {
		t.Fatalf("storage.Get() error = %v", err)
	}
	persisted := registry.FromStorage(data)
	if persisted.Has("a.com/rss") {
		t.Error("persisted set still has removed key; writes applied out of order")
	}
	if !persisted.Has("b.com/rss") {
		t.Error("persisted set missing surviving key")
	}
}

// gatedStorage stalls every write until release is closed, standing in
// for a slow network backend.
type gatedStorage struct {
	*MemoryStorage
	release chan struct{}
}

func (g *gatedStorage) Set(ctx context.Context, key string, value []byte) error {
	<-g.release
	return g.MemoryStorage.Set(ctx, key, value)
}

func (g *gatedStorage) Delete(ctx context.Context, key string) error {
	<-g.release
	return g.MemoryStorage.Delete(ctx, key)
}

func TestStore_SlowBackendDoesNotBlockMutations(t *testing.T) {
	storage := &gatedStorage{MemoryStorage: NewMemoryStorage(), release: make(chan struct{})}
	s := newTestStore(t, storage)

	// Queue far more writes than the stalled backend can drain. Every
	// mutation and every read must still return promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			s.AddSubscription(registry.NewSubscription(fmt.Sprintf("https://a.com/feed/%d", i), ""))
			s.Subscriptions()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mutations blocked behind a stalled backend")
	}

	close(storage.release)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := storage.Get(context.Background(), subscriptionsKey)
	if err != nil {
		t.Fatalf("storage.Get() error = %v", err)
	}
	if got := registry.FromStorage(data).Len(); got != 300 {
		t.Errorf("persisted Len() = %d after drain, want 300", got)
	}
}

func TestStore_ActiveFeedPointer(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)

	s.AddSubscription(registry.NewSubscription("https://a.com/rss", "A"))
	s.SetActiveFeed("a.com/rss")

	if got := s.ActiveFeed(); got != "a.com/rss" {
		t.Errorf("ActiveFeed() = %q, want %q", got, "a.com/rss")
	}
	if sub := s.ActiveSubscription(); sub == nil || sub.Key != "a.com/rss" {
		t.Errorf("ActiveSubscription() = %v, want subscription for a.com/rss", sub)
	}

	// Removing the subscription leaves the pointer dangling, which reads
	// as "none selected" rather than an error.
	s.RemoveSubscription("a.com/rss")
	if got := s.ActiveFeed(); got != "a.com/rss" {
		t.Errorf("ActiveFeed() = %q after removal, want dangling %q", got, "a.com/rss")
	}
	if sub := s.ActiveSubscription(); sub != nil {
		t.Errorf("ActiveSubscription() = %v for dangling pointer, want nil", sub)
	}
}

func TestStore_ActiveFeedSurvivesRestart(t *testing.T) {
	storage := NewMemoryStorage()

	s := newTestStore(t, storage)
	s.AddSubscription(registry.NewSubscription("https://a.com/rss", "A"))
	s.SetActiveFeed("a.com/rss")
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restarted := newTestStore(t, storage)
	if got := restarted.ActiveFeed(); got != "a.com/rss" {
		t.Errorf("ActiveFeed() after restart = %q, want %q", got, "a.com/rss")
	}
}

func TestStore_Clear(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)

	s.AddSubscription(registry.NewSubscription("https://a.com/rss", ""))
	s.SetActiveFeed("a.com/rss")
	s.Clear()

	if got := s.Subscriptions().Len(); got != 0 {
		t.Errorf("Subscriptions().Len() = %d after Clear, want 0", got)
	}
	if got := s.ActiveFeed(); got != "" {
		t.Errorf("ActiveFeed() = %q after Clear, want empty", got)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if storage.Len() != 0 {
		t.Errorf("storage.Len() = %d after Clear, want 0", storage.Len())
	}
}

func TestStore_ReplaceSet(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)
	s.AddSubscription(registry.NewSubscription("https://old.com/rss", ""))

	next := registry.NewSet()
	next.Add(registry.NewSubscription("https://a.com/rss", ""))
	next.Add(registry.NewSubscription("https://b.com/rss", ""))
	s.ReplaceSet(next)

	set := s.Subscriptions()
	if set.Has("old.com/rss") {
		t.Error("Subscriptions() still has replaced key")
	}
	if set.Len() != 2 {
		t.Errorf("Subscriptions().Len() = %d, want 2", set.Len())
	}
}

func TestStore_SubscribeNotifies(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(t, storage)

	events, cancel := s.Subscribe()
	defer cancel()

	s.AddSubscription(registry.NewSubscription("https://a.com/rss", ""))

	select {
	case e := <-events:
		if e.Type != EventSubscriptions {
			t.Errorf("event Type = %v, want EventSubscriptions", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received after mutation")
	}
}

func TestStore_InitializedFlag(t *testing.T) {
	s := newTestStore(t, NewMemoryStorage())

	if s.Initialized() {
		t.Error("Initialized() = true at construction, want false")
	}
	s.SetInitialized(true)
	if !s.Initialized() {
		t.Error("Initialized() = false after SetInitialized(true)")
	}
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := New(NewMemoryStorage())
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestFileStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileStorage(dir, "feedkeep.json")
	if err != nil {
		t.Fatalf("NewFileStorage() error = %v", err)
	}

	ctx := context.Background()
	if err := storage.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := storage.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("Get() = %q, want %q", string(got), `{"a":1}`)
	}

	// Absent keys read as nil without error.
	missing, err := storage.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("Get(absent) error = %v", err)
	}
	if missing != nil {
		t.Errorf("Get(absent) = %q, want nil", string(missing))
	}

	if err := storage.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	deleted, err := storage.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() after Delete error = %v", err)
	}
	if deleted != nil {
		t.Errorf("Get() after Delete = %q, want nil", string(deleted))
	}
}
