package core

import (
	"regexp"
	"strings"
)

// Feed titles come in two shapes showhound understands: episodic releases
// carrying an SxxEyy code and daily shows carrying an air date. Everything
// after the code is the descriptor tag blob used for pattern matching.
//
//	Show A S01E02 1080p WEB x264-GRP
//	Morning Show 2026.08.21 720p HDTV
var (
	episodeCodePattern = regexp.MustCompile(`(?i)\bS[0-9]+E[0-9]+\b`)
	airDatePattern     = regexp.MustCompile(`[0-9]{4}(?:\s+|\.)[0-9]{2}(?:\s+|\.)[0-9]{2}`)
)

// ParsedShow holds the pieces of a raw feed title.
type ParsedShow struct {
	Title   string
	Episode string
	Tags    string
}

// ParseReleaseTitle splits a raw feed title into show title, episode code
// and tag blob. Titles with neither an episode code nor an air date are
// movies and report ok=false; movies are not ingested as releases.
func ParseReleaseTitle(raw string) (ParsedShow, bool) {
	if loc := episodeCodePattern.FindStringIndex(raw); loc != nil {
		return splitAt(raw, loc), true
	}
	if loc := airDatePattern.FindStringIndex(raw); loc != nil {
		return splitAt(raw, loc), true
	}
	return ParsedShow{}, false
}

func splitAt(raw string, loc []int) ParsedShow {
	return ParsedShow{
		Title:   strings.TrimSpace(raw[:loc[0]]),
		Episode: strings.TrimSpace(raw[loc[0]:loc[1]]),
		Tags:    strings.TrimSpace(raw[loc[1]:]),
	}
}
