package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"showhound/internal/database/models"
	"showhound/internal/utils"
)

// ReleaseStore is the read interface the matcher needs from release storage.
// Implementations must evaluate link and title equality case-insensitively
// and apply the episode floor as a case-insensitive lexical compare.
type ReleaseStore interface {
	Exists(link string) (bool, error)
	FindRecentByTitle(title string, since time.Time, minEpisode string) ([]models.Release, error)
}

// WishlistStore reads the full wishlist; cardinality is expected to be small.
type WishlistStore interface {
	GetAll() ([]models.WishlistEntry, error)
}

// DownloadStore answers case-insensitive (title, episode) existence.
type DownloadStore interface {
	Exists(title, episode string) (bool, error)
}

// Candidate pairs a release with the wishlist entry it satisfies. Derived
// only; never persisted.
type Candidate struct {
	ReleaseID  int64  `json:"release_id"`
	WishlistID int64  `json:"wishlist_id"`
	Title      string `json:"title"`
	Episode    string `json:"episode"`
	Quality    string `json:"quality"`
	Link       string `json:"link"`
	Tags       string `json:"tags"`
}

// EntryError reports a wishlist entry skipped during a pass because its
// filter patterns do not compile. The rest of the pass is unaffected.
type EntryError struct {
	WishlistID int64  `json:"wishlist_id"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

// MatchResult is the output of one matching pass.
type MatchResult struct {
	Candidates  []Candidate  `json:"candidates"`
	EntryErrors []EntryError `json:"entry_errors,omitempty"`
}

// Matcher computes the set of releases eligible for download. It is
// stateless apart from the configurable recency window and safe for
// concurrent passes; it only reads from its stores.
type Matcher struct {
	releases  ReleaseStore
	wishlist  WishlistStore
	downloads DownloadStore
	logger    *utils.Logger

	mu     sync.RWMutex
	window time.Duration
}

func NewMatcher(releases ReleaseStore, wishlist WishlistStore, downloads DownloadStore, window time.Duration, logger *utils.Logger) *Matcher {
	return &Matcher{
		releases:  releases,
		wishlist:  wishlist,
		downloads: downloads,
		window:    window,
		logger:    logger,
	}
}

// SetRecencyWindow adjusts the trailing eligibility window; applied from
// config reloads.
func (m *Matcher) SetRecencyWindow(window time.Duration) {
	m.mu.Lock()
	m.window = window
	m.mu.Unlock()
}

func (m *Matcher) RecencyWindow() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.window
}

// ReleaseExists reports whether a release with the given link (compared
// case-insensitively) has been seen before.
func (m *Matcher) ReleaseExists(link string) (bool, error) {
	return m.releases.Exists(link)
}

// IsDownloaded reports whether the (title, episode) pair has already been
// fetched, regardless of which release supplied it.
func (m *Matcher) IsDownloaded(title, episode string) (bool, error) {
	return m.downloads.Exists(title, episode)
}

// FindMatches joins recent releases to wishlist entries, applies the episode
// floor, tag filters and download dedup, resolves duplicate (title, episode)
// groups to a single best-quality winner, and returns candidates ordered by
// title, episode and quality rank. Read-only; repeated calls on unchanged
// stores return identical output.
//
// A wishlist entry with a malformed pattern is skipped and reported in
// MatchResult.EntryErrors; it never aborts the pass for other entries.
// Store failures abort the pass and propagate.
func (m *Matcher) FindMatches() (*MatchResult, error) {
	since := time.Now().Add(-m.RecencyWindow())

	entries, err := m.wishlist.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	result := &MatchResult{}
	best := make(map[string]Candidate)

	for _, entry := range entries {
		filter, err := CompileFilters(entry.IncludeTags, entry.ExcludeTags)
		if err != nil {
			m.logger.Warn("Skipping wishlist entry", entry.ID, "("+entry.Title+"):", err)
			result.EntryErrors = append(result.EntryErrors, EntryError{
				WishlistID: entry.ID,
				Title:      entry.Title,
				Reason:     err.Error(),
			})
			continue
		}

		minEpisode := ""
		if entry.MinEpisode != nil {
			minEpisode = *entry.MinEpisode
		}

		releases, err := m.releases.FindRecentByTitle(entry.Title, since, minEpisode)
		if err != nil {
			return nil, fmt.Errorf("failed to find releases for %q: %w", entry.Title, err)
		}

		for _, rel := range releases {
			if !filter.Match(rel.Tags) {
				continue
			}

			downloaded, err := m.downloads.Exists(rel.Title, rel.Episode)
			if err != nil {
				return nil, fmt.Errorf("failed to check download state for %q %q: %w", rel.Title, rel.Episode, err)
			}
			if downloaded {
				continue
			}

			candidate := Candidate{
				ReleaseID:  rel.ID,
				WishlistID: entry.ID,
				Title:      rel.Title,
				Episode:    rel.Episode,
				Quality:    rel.Quality,
				Link:       rel.Link,
				Tags:       rel.Tags,
			}

			key := groupKey(rel.Title, rel.Episode)
			if current, ok := best[key]; !ok || betterCandidate(candidate, current) {
				best[key] = candidate
			}
		}
	}

	for _, candidate := range best {
		result.Candidates = append(result.Candidates, candidate)
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		return candidateLess(result.Candidates[i], result.Candidates[j])
	})

	return result, nil
}

// groupKey folds title and episode so duplicates differing only by case
// collapse into one group.
func groupKey(title, episode string) string {
	return strings.ToLower(title) + "\x00" + strings.ToLower(episode)
}

// betterCandidate decides the winner inside a (title, episode) group:
// higher quality first, then lowest release ID, then lowest wishlist ID.
// The rule is contractual; output must not vary between runs on unchanged
// input.
func betterCandidate(a, b Candidate) bool {
	ra, rb := QualityRank(a.Quality), QualityRank(b.Quality)
	if ra != rb {
		return ra < rb
	}
	if a.ReleaseID != b.ReleaseID {
		return a.ReleaseID < b.ReleaseID
	}
	return a.WishlistID < b.WishlistID
}

// candidateLess orders the final sequence: title, episode (both
// case-insensitive), quality rank, release ID.
func candidateLess(a, b Candidate) bool {
	ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if ta != tb {
		return ta < tb
	}
	ea, eb := strings.ToLower(a.Episode), strings.ToLower(b.Episode)
	if ea != eb {
		return ea < eb
	}
	ra, rb := QualityRank(a.Quality), QualityRank(b.Quality)
	if ra != rb {
		return ra < rb
	}
	return a.ReleaseID < b.ReleaseID
}
