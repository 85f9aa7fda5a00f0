// ABOUTME: Charm KV backend for the preference store using the transactional Do API
// ABOUTME: Short-lived connections per operation to avoid lock contention

package charm

import (
	"context"
	"os"

	"github.com/charmbracelet/charm/kv"
)

const (
	// Default Charm server
	DefaultCharmHost = "charm.2389.dev"

	// DBName is the name of the charm kv database for feedkeep.
	DBName = "feedkeep"
)

// Storage implements store.Storage on top of a Charm cloud KV database.
// It holds no persistent connection: each operation opens the database,
// performs the operation, and closes it.
type Storage struct {
	dbName   string
	autoSync bool
}

// NewStorage creates a charm-backed storage.
func NewStorage() (*Storage, error) {
	// Set Charm server before operations
	if os.Getenv("CHARM_HOST") == "" {
		os.Setenv("CHARM_HOST", DefaultCharmHost)
	}

	return &Storage{
		dbName:   DBName,
		autoSync: true, // Auto-sync enabled for seamless multi-device use
	}, nil
}

// SetAutoSync enables or disables automatic sync after writes.
func (s *Storage) SetAutoSync(enabled bool) {
	s.autoSync = enabled
}

// Get retrieves the raw value for a key, or nil if absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := kv.DoReadOnly(s.dbName, func(k *kv.KV) error {
		data, err := k.Get([]byte(key))
		if err != nil {
			return err
		}
		value = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set writes the raw value for a key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	return s.do(func(k *kv.KV) error {
		return k.Set([]byte(key), value)
	})
}

// Delete removes a key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.do(func(k *kv.KV) error {
		return k.Delete([]byte(key))
	})
}

// Reset wipes all local data (for clear --wipe).
func (s *Storage) Reset() error {
	return kv.Do(s.dbName, func(k *kv.KV) error {
		return k.Reset()
	})
}

// Sync manually triggers a sync with the Charm server.
func (s *Storage) Sync() error {
	return kv.Do(s.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// do executes a write against the database, syncing afterwards when
// auto-sync is on.
func (s *Storage) do(fn func(k *kv.KV) error) error {
	return kv.Do(s.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if s.autoSync {
			return k.Sync()
		}
		return nil
	})
}
