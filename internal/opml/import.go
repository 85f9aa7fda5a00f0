// ABOUTME: OPML import pipeline merging parsed documents into the subscription set
// ABOUTME: Tracks imported, duplicate, and skipped counts for the import summary

package opml

import (
	"fmt"
	"io"

	"github.com/harper/feedkeep/internal/canonical"
	"github.com/harper/feedkeep/internal/registry"
)

// Summary accounts for every candidate outline seen during an import.
type Summary struct {
	// Imported is the number of subscriptions newly inserted.
	Imported int
	// Duplicates counts candidates whose canonical key already existed,
	// either in the set beforehand or earlier in the same document.
	Duplicates int
	// Skipped counts candidates whose URL canonicalizes to nothing.
	Skipped int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d imported, %d duplicate(s), %d skipped", s.Imported, s.Duplicates, s.Skipped)
}

// Import reads an OPML document from r and merges its feeds into set.
//
// The pipeline runs in stages: the document is parsed in full before any
// merging happens, so a malformed document returns an error with the set
// untouched. Merging then walks candidates in document order; each URL is
// canonicalized, empty keys are skipped, and insertion is idempotent, so
// a key already present keeps its existing subscription and metadata.
// When two URLs in the same document collapse to one key, the first
// occurrence wins and the rest count as duplicates.
func Import(r io.Reader, set *registry.Set) (Summary, error) {
	doc, err := Parse(r)
	if err != nil {
		return Summary{}, err
	}
	return Merge(doc, set), nil
}

// Merge applies an already-parsed document to the set and returns the
// summary. Merge never fails.
func Merge(doc *Document, set *registry.Set) Summary {
	var summary Summary
	for _, feed := range doc.Feeds() {
		key := canonical.Canonicalize(feed.URL)
		if key == "" {
			summary.Skipped++
			continue
		}
		if set.Has(key) {
			summary.Duplicates++
			continue
		}
		set.Add(registry.NewSubscription(feed.URL, feed.Title))
		summary.Imported++
	}
	return summary
}
