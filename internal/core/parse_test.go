package core

import "testing"

func TestParseReleaseTitleEpisodic(t *testing.T) {
	parsed, ok := ParseReleaseTitle("Show A S01E02 1080p WEB x264-GRP")
	if !ok {
		t.Fatal("Expected episodic title to parse")
	}
	if parsed.Title != "Show A" {
		t.Errorf("Title = %q, want %q", parsed.Title, "Show A")
	}
	if parsed.Episode != "S01E02" {
		t.Errorf("Episode = %q, want %q", parsed.Episode, "S01E02")
	}
	if parsed.Tags != "1080p WEB x264-GRP" {
		t.Errorf("Tags = %q, want %q", parsed.Tags, "1080p WEB x264-GRP")
	}
}

func TestParseReleaseTitleLowercaseCode(t *testing.T) {
	parsed, ok := ParseReleaseTitle("show b s03e11 720p hdtv")
	if !ok {
		t.Fatal("Expected lowercase episode code to parse")
	}
	if parsed.Episode != "s03e11" {
		t.Errorf("Episode = %q, want %q", parsed.Episode, "s03e11")
	}
}

func TestParseReleaseTitleDaily(t *testing.T) {
	parsed, ok := ParseReleaseTitle("Morning Show 2026.08.21 720p HDTV x264")
	if !ok {
		t.Fatal("Expected dated title to parse")
	}
	if parsed.Title != "Morning Show" {
		t.Errorf("Title = %q, want %q", parsed.Title, "Morning Show")
	}
	if parsed.Episode != "2026.08.21" {
		t.Errorf("Episode = %q, want %q", parsed.Episode, "2026.08.21")
	}

	parsed, ok = ParseReleaseTitle("Evening News 2026 08 21 1080p WEB")
	if !ok {
		t.Fatal("Expected space-separated date to parse")
	}
	if parsed.Episode != "2026 08 21" {
		t.Errorf("Episode = %q, want %q", parsed.Episode, "2026 08 21")
	}
}

func TestParseReleaseTitleMovie(t *testing.T) {
	if _, ok := ParseReleaseTitle("The Big Film 1080p BluRay x264"); ok {
		t.Error("Expected movie title to be rejected")
	}
	if _, ok := ParseReleaseTitle("Heat 1995 1080p BluRay"); ok {
		t.Error("Expected movie with year to be rejected")
	}
}
