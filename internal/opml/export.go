// ABOUTME: OPML export building a flat document from the subscription set
// ABOUTME: Prefers original URLs over canonical keys for interchange fidelity

package opml

import (
	"io"

	"github.com/samber/lo"

	"github.com/harper/feedkeep/internal/registry"
)

// Export builds a minimal OPML document with one leaf outline per
// subscription. The original URL is used when it was retained so other
// readers see what the user actually subscribed to; the canonical key
// stands in otherwise. The output re-imports to the same key set.
func Export(title string, set *registry.Set) *Document {
	return &Document{
		Title: title,
		Outlines: lo.Map(set.All(), func(sub *registry.Subscription, _ int) Outline {
			url := sub.URL
			if url == "" {
				url = sub.Key
			}
			text := sub.Title
			if text == "" {
				text = url
			}
			return Outline{
				Text:   text,
				Title:  sub.Title,
				Type:   "rss",
				XMLURL: url,
			}
		}),
	}
}

// ExportTo serializes the set as OPML straight to a writer.
func ExportTo(w io.Writer, title string, set *registry.Set) error {
	return Export(title, set).Write(w)
}
