package utils

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name untouched", "Show.A.S01E02.1080p.WEB.torrent", "Show.A.S01E02.1080p.WEB.torrent"},
		{"path separators dropped", `../..\Show A.torrent`, "....Show A.torrent"},
		{"shell punctuation dropped", `Show "A" <S01E02>?*.torrent`, "Show A S01E02.torrent"},
		{"control characters dropped", "Show\x00A\x1f.torrent", "ShowA.torrent"},
		{"trailing dots and spaces trimmed", "Show A. . ", "Show A"},
		{"nothing left falls back", `<>:"/\|?*`, "download"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("%s: SanitizeFilename(%q) = %q, want %q", tt.name, tt.in, got, tt.want)
		}
	}
}
