// ABOUTME: Tests for the HTTP fetcher
// ABOUTME: Verifies success, error statuses, and response size limiting

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "feedkeep/") {
			t.Errorf("User-Agent = %q, want feedkeep prefix", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	result, err := Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(result.Body) != "hello" {
		t.Errorf("Body = %q, want %q", string(result.Body), "hello")
	}
	if result.ContentType != "application/rss+xml" {
		t.Errorf("ContentType = %q, want %q", result.ContentType, "application/rss+xml")
	}
}

func TestFetch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Fetch() error = nil for 404, want error")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	if _, err := Fetch(context.Background(), "://bad"); err == nil {
		t.Fatal("Fetch() error = nil for invalid URL, want error")
	}
}

func TestFetch_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("x", 1024*1024)
		for i := 0; i < 11; i++ {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Fetch() error = nil for oversized response, want error")
	}
}
