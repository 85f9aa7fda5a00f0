// ABOUTME: Feed discovery for resolving a site URL to its feed URL
// ABOUTME: Tries direct parse, HTML link alternates, then common path probing

package discover

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/harper/feedkeep/internal/fetch"
)

// Common feed paths to probe when other discovery methods fail
var commonFeedPaths = []string{
	"/feed.xml",
	"/feed",
	"/rss.xml",
	"/rss",
	"/atom.xml",
	"/atom",
	"/index.xml",
}

// Errors returned by discovery functions
var (
	ErrNoFeedFound = errors.New("no RSS/Atom feed found at URL")
	ErrInvalidURL  = errors.New("invalid URL")
)

// DiscoveredFeed represents a feed found during discovery
type DiscoveredFeed struct {
	URL   string // Absolute URL of the feed
	Title string // Feed title (from content or link element)
}

// Discover attempts to find an RSS/Atom feed from the given URL.
// It tries the following strategies in order:
//  1. Parse URL as a direct feed
//  2. Parse URL as HTML and extract <link rel="alternate"> headers
//  3. Probe common feed URL patterns
//
// Returns the discovered feed, or an error if none found.
func Discover(ctx context.Context, inputURL string) (*DiscoveredFeed, error) {
	parsedURL, err := url.Parse(inputURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: missing scheme or host", ErrInvalidURL)
	}

	// Strategy 1: Try direct feed
	feed, body, err := tryDirectFeed(ctx, inputURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if feed != nil {
		return feed, nil
	}

	// Strategy 2: Extract feed links from HTML
	candidates, err := extractFeedLinks(body, parsedURL)
	if err == nil && len(candidates) > 0 {
		for _, candidate := range candidates {
			verified, _, verifyErr := tryDirectFeed(ctx, candidate.URL)
			if verifyErr == nil && verified != nil {
				// Use title from HTML link if feed doesn't have one
				if verified.Title == "" && candidate.Title != "" {
					verified.Title = candidate.Title
				}
				return verified, nil
			}
		}
	}

	// Strategy 3: Probe common paths
	if feed, err := probeCommonPaths(ctx, parsedURL); err == nil && feed != nil {
		return feed, nil
	}

	return nil, ErrNoFeedFound
}

// tryDirectFeed attempts to fetch and parse the URL as an RSS/Atom feed.
// Returns the feed if successful, or nil if the content is not a valid feed.
// Also returns the raw body for use in HTML parsing if it's not a feed.
func tryDirectFeed(ctx context.Context, feedURL string) (*DiscoveredFeed, []byte, error) {
	result, err := fetch.Fetch(ctx, feedURL)
	if err != nil {
		return nil, nil, err
	}

	parsed, parseErr := gofeed.NewParser().ParseString(string(result.Body))
	if parseErr != nil {
		// Not a valid feed; hand the body back for HTML link extraction.
		return nil, result.Body, nil
	}

	return &DiscoveredFeed{
		URL:   feedURL,
		Title: parsed.Title,
	}, result.Body, nil
}

// extractFeedLinks parses HTML and returns feed URLs from <link rel="alternate"> elements
func extractFeedLinks(htmlBody []byte, baseURL *url.URL) ([]DiscoveredFeed, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlBody)))
	if err != nil {
		return nil, err
	}

	var feeds []DiscoveredFeed
	var findLinks func(*html.Node)
	findLinks = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, linkType, href, title string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "rel":
					rel = attr.Val
				case "type":
					linkType = attr.Val
				case "href":
					href = attr.Val
				case "title":
					title = attr.Val
				}
			}

			if rel == "alternate" && isFeedContentType(linkType) && href != "" {
				resolved, err := resolveURL(href, baseURL)
				if err == nil {
					feeds = append(feeds, DiscoveredFeed{
						URL:   resolved,
						Title: title,
					})
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findLinks(c)
		}
	}

	findLinks(doc)
	return feeds, nil
}

// probeCommonPaths tries common feed URL patterns against the base URL
func probeCommonPaths(ctx context.Context, baseURL *url.URL) (*DiscoveredFeed, error) {
	probeBase := &url.URL{
		Scheme: baseURL.Scheme,
		Host:   baseURL.Host,
	}

	for _, path := range commonFeedPaths {
		probeURL := probeBase.String() + path
		feed, _, err := tryDirectFeed(ctx, probeURL)
		if err == nil && feed != nil {
			return feed, nil
		}
	}

	return nil, ErrNoFeedFound
}

// resolveURL resolves a potentially relative URL against a base URL
func resolveURL(href string, baseURL *url.URL) (string, error) {
	refURL, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// isFeedContentType checks if the content type indicates a feed
func isFeedContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "rss") ||
		strings.Contains(contentType, "atom") ||
		strings.Contains(contentType, "xml")
}
