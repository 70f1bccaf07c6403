package core

import (
	"errors"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestPassesFiltersTruthTable(t *testing.T) {
	tests := []struct {
		name    string
		tags    string
		include *string
		exclude *string
		want    bool
	}{
		{"no filters", "1080p.WEB", nil, nil, true},
		{"include matches", "1080p.WEB", strPtr("1080p"), nil, true},
		{"include does not match", "720p.WEB", strPtr("1080p"), nil, false},
		{"exclude does not match", "1080p.WEB", nil, strPtr("CAM"), true},
		{"exclude matches", "1080p.CAM", nil, strPtr("CAM"), false},
		{"both pass", "1080p.WEB", strPtr("1080p"), strPtr("CAM"), true},
		{"include passes exclude rejects", "1080p.WEB", strPtr("1080p"), strPtr("WEB"), false},
		{"include fails exclude passes", "720p.WEB", strPtr("1080p"), strPtr("CAM"), false},
	}

	for _, tt := range tests {
		got, err := PassesFilters(tt.tags, tt.include, tt.exclude)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: PassesFilters(%q) = %v, want %v", tt.name, tt.tags, got, tt.want)
		}
	}
}

func TestPassesFiltersCaseInsensitive(t *testing.T) {
	got, err := PassesFilters("1080P.Web-DL", strPtr("web"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("Expected case-insensitive include match")
	}

	got, err = PassesFilters("1080p.cam", nil, strPtr("CAM"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("Expected case-insensitive exclude match to reject")
	}
}

func TestPassesFiltersInvalidPattern(t *testing.T) {
	if _, err := PassesFilters("1080p.WEB", strPtr("["), nil); err == nil {
		t.Fatal("Expected error for invalid include pattern")
	} else if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Expected ErrInvalidPattern, got %v", err)
	}

	// An invalid exclude is surfaced even when the include already fails
	// to match; a bad pattern must never decide the outcome silently.
	if _, err := PassesFilters("720p.WEB", strPtr("1080p"), strPtr("[")); err == nil {
		t.Fatal("Expected error for invalid exclude pattern")
	}
}

func TestValidatePattern(t *testing.T) {
	if err := ValidatePattern("1080p|720p"); err != nil {
		t.Errorf("Expected valid pattern, got %v", err)
	}
	if err := ValidatePattern("("); err == nil {
		t.Error("Expected error for unbalanced pattern")
	} else if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Expected ErrInvalidPattern, got %v", err)
	}
}
