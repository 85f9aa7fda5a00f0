// ABOUTME: Codec between the in-memory subscription set and its persisted form
// ABOUTME: Tolerates legacy storage shapes (object map, sequence, absent) on read

package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/harper/feedkeep/internal/canonical"
)

// ToStorage flattens a set into its persisted form: a JSON array of
// subscription records ordered by canonical key. Key order keeps the
// serialized form stable across runs so persisted diffs stay minimal.
func ToStorage(s *Set) ([]byte, error) {
	subs := s.All()
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Key < subs[j].Key
	})
	return json.Marshal(subs)
}

// FromStorage rebuilds a set from persisted data. Storage can hand back
// legacy or malformed shapes, so decoding dispatches on the top-level JSON
// shape: an array is the current form, an object is the legacy map keyed
// by canonical key, and anything else (nil, empty, garbage, scalars)
// yields an empty set. FromStorage is total; it never returns an error.
//
// Records with duplicate canonical keys collapse to the first occurrence.
// Records whose key is empty are re-derived from their URL; if still
// empty they are dropped.
func FromStorage(data []byte) *Set {
	set := NewSet()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return set
	}

	switch trimmed[0] {
	case '[':
		var subs []*Subscription
		if err := json.Unmarshal(trimmed, &subs); err != nil {
			return set
		}
		for _, sub := range subs {
			addNormalized(set, sub)
		}
	case '{':
		// Legacy shape: object keyed by canonical key. Keys are sorted
		// so rebuild order does not depend on map iteration.
		var byKey map[string]*Subscription
		if err := json.Unmarshal(trimmed, &byKey); err != nil {
			return set
		}
		keys := make([]string, 0, len(byKey))
		for key := range byKey {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			sub := byKey[key]
			if sub != nil && sub.Key == "" {
				sub.Key = key
			}
			addNormalized(set, sub)
		}
	}

	return set
}

// addNormalized repairs a decoded record before insertion. Older persisted
// data may lack the canonical key, so it is re-derived from the URL.
func addNormalized(set *Set, sub *Subscription) {
	if sub == nil {
		return
	}
	if sub.Key == "" {
		sub.Key = canonical.Canonicalize(sub.URL)
	}
	set.Add(sub)
}
