package feed

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Indexer</title>
    <item>
      <title>Show A S01E02 1080p WEB x264-GRP</title>
      <category>TV/HD</category>
      <link>http://indexer.local/dl/1</link>
      <pubDate>Fri, 21 Aug 2026 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>No Link Here S01E01 720p</title>
    </item>
    <item>
      <title>Show B S02E05 720p HDTV</title>
      <link>http://indexer.local/dl/2</link>
    </item>
  </channel>
</rss>`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	client := NewClient(10 * time.Second)
	items, err := client.Fetch(srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items (linkless entry dropped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "Show A S01E02 1080p WEB x264-GRP" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Category != "TV/HD" {
		t.Errorf("Category = %q, want TV/HD", first.Category)
	}
	if first.Link != "http://indexer.local/dl/1" {
		t.Errorf("Link = %q", first.Link)
	}
	want := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	if !first.Published.Equal(want) {
		t.Errorf("Published = %v, want %v", first.Published, want)
	}

	// Missing pubDate falls back to fetch time.
	if time.Since(items[1].Published) > time.Minute {
		t.Errorf("Expected fetch-time fallback for missing date, got %v", items[1].Published)
	}
}

func TestFetchBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(10 * time.Second)
	if _, err := client.Fetch(srv.URL); err == nil {
		t.Error("Expected error for failing feed endpoint")
	}
}
