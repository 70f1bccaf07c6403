package core

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"showhound/internal/database/models"
	"showhound/internal/utils"
)

// Fake stores mirroring the repository contracts: case-insensitive link and
// title equality, case-insensitive lexical episode floor.

type fakeReleaseStore struct {
	releases []models.Release
	err      error
}

func (f *fakeReleaseStore) Exists(link string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.releases {
		if strings.EqualFold(r.Link, link) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReleaseStore) FindRecentByTitle(title string, since time.Time, minEpisode string) ([]models.Release, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Release
	for _, r := range f.releases {
		if !strings.EqualFold(r.Title, title) {
			continue
		}
		if !r.PublishedAt.After(since) {
			continue
		}
		if strings.ToLower(r.Episode) < strings.ToLower(minEpisode) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeWishlistStore struct {
	entries []models.WishlistEntry
	err     error
}

func (f *fakeWishlistStore) GetAll() ([]models.WishlistEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeDownloadStore struct {
	downloads []models.Download
	err       error
}

func (f *fakeDownloadStore) Exists(title, episode string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, d := range f.downloads {
		if strings.EqualFold(d.Title, title) && strings.EqualFold(d.Episode, episode) {
			return true, nil
		}
	}
	return false, nil
}

func testMatcher(releases *fakeReleaseStore, wishlist *fakeWishlistStore, downloads *fakeDownloadStore) *Matcher {
	logger := utils.NewLogger(false, io.Discard)
	return NewMatcher(releases, wishlist, downloads, 3*24*time.Hour, logger)
}

func release(id int64, title, episode, quality, tags, link string, age time.Duration) models.Release {
	return models.Release{
		ID:          id,
		Title:       title,
		Episode:     episode,
		Quality:     quality,
		Tags:        tags,
		Link:        link,
		PublishedAt: time.Now().Add(-age),
	}
}

func entry(id int64, title string, minEpisode, include, exclude *string) models.WishlistEntry {
	return models.WishlistEntry{
		ID:          id,
		Title:       title,
		MinEpisode:  minEpisode,
		IncludeTags: include,
		ExcludeTags: exclude,
	}
}

func TestFindMatchesBasicPairing(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Other Show", "S05E01", "720p", "720p.WEB", "http://x/2", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "show a", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(result.Candidates))
	}
	c := result.Candidates[0]
	if c.ReleaseID != 1 || c.WishlistID != 10 {
		t.Errorf("Expected pairing (release 1, wishlist 10), got (%d, %d)", c.ReleaseID, c.WishlistID)
	}
	if !strings.EqualFold(c.Title, "show a") {
		t.Errorf("Candidate title %q does not match wishlist title case-insensitively", c.Title)
	}
}

func TestFindMatchesDuplicateResolvedToBestQuality(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Show A", "S01E02", "720p", "720p.WEB", "http://x/2", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("Expected exactly 1 candidate for the duplicate pair, got %d", len(result.Candidates))
	}
	if result.Candidates[0].Quality != "1080p" {
		t.Errorf("Expected the 1080p duplicate to win, got %q", result.Candidates[0].Quality)
	}
}

func TestFindMatchesEqualQualityTieBreak(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(7, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/7", time.Hour),
		release(3, "Show A", "S01E02", "1080p", "1080p.WEB-DL", "http://x/3", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(result.Candidates))
	}
	if result.Candidates[0].ReleaseID != 3 {
		t.Errorf("Expected lowest release ID to win the tie, got %d", result.Candidates[0].ReleaseID)
	}
}

func TestFindMatchesDownloadedSuppressed(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Show A", "S01E02", "720p", "720p.WEB", "http://x/2", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, nil, nil),
	}}
	downloads := &fakeDownloadStore{downloads: []models.Download{
		{Title: "show a", Episode: "s01e02"},
	}}
	m := testMatcher(releases, wishlist, downloads)

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 0 {
		t.Errorf("Expected downloaded pair to be suppressed, got %d candidates", len(result.Candidates))
	}
}

func TestFindMatchesRecencyWindow(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", 4*24*time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 0 {
		t.Errorf("Expected release outside the 3-day window to be excluded, got %d candidates", len(result.Candidates))
	}
}

func TestFindMatchesEpisodeFloor(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Show A", "S02E01", "1080p", "1080p.WEB", "http://x/2", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", strPtr("S02E01"), nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("Expected only the release at the floor, got %d candidates", len(result.Candidates))
	}
	if result.Candidates[0].Episode != "S02E01" {
		t.Errorf("Expected S02E01, got %q", result.Candidates[0].Episode)
	}
}

func TestFindMatchesFilterComposition(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Show A", "S01E03", "1080p", "1080p.CAM", "http://x/2", time.Hour),
		release(3, "Show A", "S01E04", "720p", "720p.WEB", "http://x/3", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, strPtr("1080p"), strPtr("CAM")),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate after filters, got %d", len(result.Candidates))
	}
	if result.Candidates[0].ReleaseID != 1 {
		t.Errorf("Expected release 1 to survive the filters, got %d", result.Candidates[0].ReleaseID)
	}
}

func TestFindMatchesMalformedPatternSkipsEntry(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Show B", "S02E05", "720p", "720p.WEB", "http://x/2", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, strPtr("["), nil),
		entry(11, "Show B", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("One bad pattern must not abort the pass: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("Expected the healthy entry to still match, got %d candidates", len(result.Candidates))
	}
	if result.Candidates[0].WishlistID != 11 {
		t.Errorf("Expected wishlist 11 to match, got %d", result.Candidates[0].WishlistID)
	}
	if len(result.EntryErrors) != 1 {
		t.Fatalf("Expected 1 entry error, got %d", len(result.EntryErrors))
	}
	if result.EntryErrors[0].WishlistID != 10 {
		t.Errorf("Expected entry 10 to be reported, got %d", result.EntryErrors[0].WishlistID)
	}
}

func TestFindMatchesOrdering(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(5, "show b", "S01E01", "720p", "720p.WEB", "http://x/5", time.Hour),
		release(4, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/4", time.Hour),
		release(3, "Show A", "S01E01", "unknown", "WEB", "http://x/3", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show B", nil, nil, nil),
		entry(11, "Show A", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if len(result.Candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(result.Candidates))
	}

	gotOrder := []int64{result.Candidates[0].ReleaseID, result.Candidates[1].ReleaseID, result.Candidates[2].ReleaseID}
	wantOrder := []int64{3, 4, 5}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("Expected order %v (title then episode, case-insensitive), got %v", wantOrder, gotOrder)
	}
}

func TestFindMatchesIdempotent(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", time.Hour),
		release(2, "Show A", "S01E02", "720p", "720p.WEB", "http://x/2", time.Hour),
		release(3, "Show B", "S02E05", "720p", "720p.WEB", "http://x/3", time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, nil, nil),
		entry(11, "Show B", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	first, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	second, err := m.FindMatches()
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical output for unchanged stores:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFindMatchesStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("store unavailable")

	m := testMatcher(&fakeReleaseStore{}, &fakeWishlistStore{err: storeErr}, &fakeDownloadStore{})
	if _, err := m.FindMatches(); !errors.Is(err, storeErr) {
		t.Errorf("Expected wishlist store error to propagate, got %v", err)
	}

	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{entry(10, "Show A", nil, nil, nil)}}
	m = testMatcher(&fakeReleaseStore{err: storeErr}, wishlist, &fakeDownloadStore{})
	if _, err := m.FindMatches(); !errors.Is(err, storeErr) {
		t.Errorf("Expected release store error to propagate, got %v", err)
	}
}

func TestFindMatchesEmptyIsNotAnError(t *testing.T) {
	m := testMatcher(&fakeReleaseStore{}, &fakeWishlistStore{}, &fakeDownloadStore{})
	result, err := m.FindMatches()
	if err != nil {
		t.Fatalf("Empty stores must yield a valid empty result: %v", err)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(result.Candidates))
	}
}

func TestMatcherExistenceDelegation(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://example.com/x", time.Hour),
	}}
	downloads := &fakeDownloadStore{downloads: []models.Download{
		{Title: "Show A", Episode: "S01E02"},
	}}
	m := testMatcher(releases, &fakeWishlistStore{}, downloads)

	exists, err := m.ReleaseExists("HTTP://Example.com/X")
	if err != nil {
		t.Fatalf("ReleaseExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected link lookup to be case-insensitive")
	}

	downloaded, err := m.IsDownloaded("SHOW A", "s01e02")
	if err != nil {
		t.Fatalf("IsDownloaded failed: %v", err)
	}
	if !downloaded {
		t.Error("Expected download lookup to be case-insensitive")
	}
}

func TestSetRecencyWindow(t *testing.T) {
	releases := &fakeReleaseStore{releases: []models.Release{
		release(1, "Show A", "S01E02", "1080p", "1080p.WEB", "http://x/1", 5*24*time.Hour),
	}}
	wishlist := &fakeWishlistStore{entries: []models.WishlistEntry{
		entry(10, "Show A", nil, nil, nil),
	}}
	m := testMatcher(releases, wishlist, &fakeDownloadStore{})

	result, _ := m.FindMatches()
	if len(result.Candidates) != 0 {
		t.Fatal("Expected 5-day-old release outside the default window")
	}

	m.SetRecencyWindow(7 * 24 * time.Hour)
	result, _ = m.FindMatches()
	if len(result.Candidates) != 1 {
		t.Error("Expected release inside the widened window")
	}
}
