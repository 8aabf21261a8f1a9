package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Football</title>
  <item>
    <title>Arsenal &amp; Chelsea &lt;b&gt;talks&lt;/b&gt;</title>
    <link> https://example.com/a </link>
    <pubDate>Wed, 20 Mar 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/b</link>
  </item>
</channel>
</rss>`

func TestRSSFetcherParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := &RSSFetcher{Feed: Feed{Source: "Sky Sports", URL: srv.URL}}
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Arsenal & Chelsea talks" {
		t.Fatalf("unexpected cleaned title: %q", first.Title)
	}
	if first.Link != "https://example.com/a" || first.Source != "Sky Sports" {
		t.Fatalf("unexpected record: %+v", first)
	}
	if first.Published != "2024-03-20T10:00:00Z" || first.PublishedRaw != "Wed, 20 Mar 2024 10:00:00 GMT" {
		t.Fatalf("unexpected published: %q raw %q", first.Published, first.PublishedRaw)
	}
	if items[1].Title != untitled {
		t.Fatalf("empty title should fall back, got %q", items[1].Title)
	}
}

func TestRSSFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := &RSSFetcher{Feed: Feed{Source: "BBC Sport", URL: srv.URL}}
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for 503 response")
	}
}

func TestRSSFetcherRejectsNonFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("just some text"))
	}))
	defer srv.Close()

	f := &RSSFetcher{Feed: Feed{Source: "BBC Sport", URL: srv.URL}}
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCleanText(t *testing.T) {
	if got := cleanText("  plain title "); got != "plain title" {
		t.Fatalf("cleanText plain = %q", got)
	}
	if got := cleanText("Saka <em>scores</em>\n again"); got != "Saka scores again" {
		t.Fatalf("cleanText html = %q", got)
	}
}

func TestFetchBodyStopsWhenContextCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fetchBody(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("fetchBody err = %v, want context.Canceled", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("no request expected after cancel, got %d", hits.Load())
	}
}
