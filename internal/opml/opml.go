// ABOUTME: OPML parsing and writing for feed subscription interchange
// ABOUTME: Supports nested folder outlines and round-trip XML serialization

package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Document represents an OPML document with a title and hierarchical outlines.
type Document struct {
	Title    string
	Outlines []Outline
}

// Outline is a node in the OPML tree. A node with an XMLURL is a feed;
// a node without one is a folder or category whose children may be feeds.
type Outline struct {
	Text     string
	Title    string
	Type     string
	XMLURL   string
	Children []Outline
}

// XML structs for parsing and writing OPML files
type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    headXML  `xml:"head"`
	Body    bodyXML  `xml:"body"`
}

type headXML struct {
	Title string `xml:"title"`
}

type bodyXML struct {
	Outlines []outlineXML `xml:"outline"`
}

type outlineXML struct {
	Text     string       `xml:"text,attr"`
	Title    string       `xml:"title,attr,omitempty"`
	Type     string       `xml:"type,attr,omitempty"`
	XMLURL   string       `xml:"xmlUrl,attr,omitempty"`
	Children []outlineXML `xml:"outline,omitempty"`
}

// Parse reads OPML data from an io.Reader and returns a Document.
// A document that is not well-formed XML returns an error; no partial
// result is produced.
func Parse(r io.Reader) (*Document, error) {
	var opml opmlXML
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&opml); err != nil {
		return nil, fmt.Errorf("failed to decode OPML: %w", err)
	}

	doc := &Document{
		Title:    opml.Head.Title,
		Outlines: make([]Outline, len(opml.Body.Outlines)),
	}

	for i, outline := range opml.Body.Outlines {
		doc.Outlines[i] = convertOutlineFromXML(outline)
	}

	return doc, nil
}

// ParseFile reads OPML data from a file and returns a Document.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Feed is a flattened view of a leaf outline carrying a feed URL.
type Feed struct {
	URL   string
	Title string
}

// Feeds returns every feed outline in document order, recursing through
// folders. Folder hierarchy is not preserved; the registry merges flat.
// Outlines without an xmlUrl attribute contribute nothing.
func (d *Document) Feeds() []Feed {
	var feeds []Feed
	for _, outline := range d.Outlines {
		feeds = append(feeds, collectFeeds(outline)...)
	}
	return feeds
}

// Write writes the OPML document to an io.Writer.
func (d *Document) Write(w io.Writer) error {
	opml := opmlXML{
		Version: "2.0",
		Head: headXML{
			Title: d.Title,
		},
		Body: bodyXML{
			Outlines: make([]outlineXML, len(d.Outlines)),
		},
	}

	for i, outline := range d.Outlines {
		opml.Body.Outlines[i] = convertOutlineToXML(outline)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	if err := encoder.Encode(opml); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	return nil
}

// WriteFile writes the OPML document to a file.
func (d *Document) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return d.Write(file)
}

// Helper functions

func convertOutlineFromXML(x outlineXML) Outline {
	o := Outline{
		Text:     x.Text,
		Title:    x.Title,
		Type:     x.Type,
		XMLURL:   x.XMLURL,
		Children: make([]Outline, len(x.Children)),
	}

	for i, child := range x.Children {
		o.Children[i] = convertOutlineFromXML(child)
	}

	return o
}

func convertOutlineToXML(o Outline) outlineXML {
	x := outlineXML{
		Text:     o.Text,
		Title:    o.Title,
		Type:     o.Type,
		XMLURL:   o.XMLURL,
		Children: make([]outlineXML, len(o.Children)),
	}

	for i, child := range o.Children {
		x.Children[i] = convertOutlineToXML(child)
	}

	return x
}

func collectFeeds(outline Outline) []Feed {
	var feeds []Feed
	if outline.XMLURL != "" {
		feeds = append(feeds, Feed{
			URL:   outline.XMLURL,
			Title: outlineTitle(outline),
		})
	}
	for _, child := range outline.Children {
		feeds = append(feeds, collectFeeds(child)...)
	}
	return feeds
}

func outlineTitle(outline Outline) string {
	if outline.Title != "" {
		return outline.Title
	}
	return outline.Text
}
