package core

import (
	"strings"

	"showhound/internal/database/models"
)

// --- Quality Ranking Logic ---

// Ranks are best-to-worst; anything not in the map ranks last.
var QUALITY_RANK = map[string]int{
	"2160p": 0,
	"1080p": 1,
	"720p":  2,
}

// UnknownQualityRank is assigned to any unrecognized quality label.
const UnknownQualityRank = 3

var QUALITY_SYNONYMS = map[string][]string{
	"2160p": {"2160p", "4k", "uhd"},
	"1080p": {"1080p", "fhd"},
	"720p":  {"720p", "hd"},
}

// Ordered from highest to lowest for matching
var SUPPORTED_QUALITIES = []string{"2160p", "1080p", "720p"}

// QualityRank maps a quality label to its priority; lower is better.
func QualityRank(quality string) int {
	if rank, ok := QUALITY_RANK[strings.ToLower(quality)]; ok {
		return rank
	}
	return UnknownQualityRank
}

// DetectQuality scans a tag blob for a recognized resolution label, best
// first, and returns the canonical label or "unknown".
func DetectQuality(tags string) string {
	lowerTags := strings.ToLower(tags)
	for _, quality := range SUPPORTED_QUALITIES {
		for _, synonym := range QUALITY_SYNONYMS[quality] {
			if strings.Contains(lowerTags, synonym) {
				return quality
			}
		}
	}
	return models.QualityUnknown
}
