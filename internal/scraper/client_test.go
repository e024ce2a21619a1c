package scraper

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGet_Success(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected User-Agent header to be set")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 2)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 5)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got error: %v", err)
	}
	_ = resp.Body.Close()

	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 requests (2 failures + 1 success), got %d", got)
	}
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"unauthorized", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(5*time.Second, 3)
			_, err := client.Get(context.Background(), server.URL)
			if err == nil {
				t.Fatal("Expected error for client error status")
			}

			if got := calls.Load(); got != 1 {
				t.Errorf("Expected 1 request (no retries), got %d", got)
			}
		})
	}
}

func TestGetDocument_ParsesHTML(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Test College</title></head><body><h1>Welcome</h1></body></html>`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 1)
	doc, err := client.GetDocument(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	if title := doc.Find("title").Text(); title != "Test College" {
		t.Errorf("Expected title 'Test College', got %q", title)
	}
	if h1 := doc.Find("h1").Text(); h1 != "Welcome" {
		t.Errorf("Expected h1 'Welcome', got %q", h1)
	}
}

func TestGetDocument_GzipResponse(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`<html><body><h1>Compressed Page</h1></body></html>`))
		_ = gz.Close()
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 1)
	doc, err := client.GetDocument(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	if h1 := doc.Find("h1").Text(); h1 != "Compressed Page" {
		t.Errorf("Expected h1 'Compressed Page', got %q", h1)
	}
}

func TestRandomUserAgent(t *testing.T) {
	t.Parallel()
	client := NewClient(5*time.Second, 1)

	ua := client.randomUserAgent()
	if ua == "" {
		t.Error("Expected non-empty user agent")
	}

	// Empty pool falls back to the generated library
	empty := &Client{userAgents: nil}
	if ua := empty.randomUserAgent(); ua == "" {
		t.Error("Expected fallback user agent for empty pool")
	}
}
