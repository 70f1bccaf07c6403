package core

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"showhound/internal/clients/feed"
	"showhound/internal/clients/fetch"
	"showhound/internal/clients/notifications"
	"showhound/internal/config"
	"showhound/internal/database/models"
	"showhound/internal/utils"
)

// ErrInvalidEntry marks a wishlist entry rejected by creation-time
// validation.
var ErrInvalidEntry = errors.New("invalid wishlist entry")

type feedSource interface {
	Fetch(url string) ([]feed.Item, error)
}

type releaseFetcher interface {
	Fetch(link string) (string, error)
}

// Manager wires the matching engine to its collaborators: the feed client,
// the download client, the stores, the scheduler and the event stream.
type Manager struct {
	logger       *utils.Logger
	releaseRepo  *models.ReleaseRepository
	wishlistRepo *models.WishlistRepository
	downloadRepo *models.DownloadRepository
	matcher      *Matcher
	feedClient   feedSource
	downloader   releaseFetcher
	notifiers    []notifications.Notifier
	events       EventPublisher
	scheduler    *cron.Cron
	fetchQueue   chan Candidate
	done         chan struct{}
	stopOnce     sync.Once

	mu           sync.RWMutex
	feedURL      string
	pollSchedule string
	retention    time.Duration
	saveDir      string
}

func NewManager(cfg *config.Config, db *sql.DB, logger *utils.Logger, events EventPublisher) *Manager {
	if events == nil {
		events = NoopPublisher{}
	}

	releaseRepo := models.NewReleaseRepository(db)
	wishlistRepo := models.NewWishlistRepository(db)
	downloadRepo := models.NewDownloadRepository(db)

	m := &Manager{
		logger:       logger,
		releaseRepo:  releaseRepo,
		wishlistRepo: wishlistRepo,
		downloadRepo: downloadRepo,
		matcher:      NewMatcher(releaseRepo, wishlistRepo, downloadRepo, cfg.RecencyWindow(), logger),
		feedClient:   feed.NewClient(cfg.FeedFetchTimeout()),
		downloader: fetch.NewDownloader(cfg.Downloads.SaveDir, cfg.App.DataPath,
			cfg.DownloadFetchTimeout(), cfg.MagnetTimeout(), logger),
		events:       events,
		scheduler:    cron.New(),
		fetchQueue:   make(chan Candidate, cfg.Downloads.QueueSize),
		done:         make(chan struct{}),
		feedURL:      cfg.Feed.URL,
		pollSchedule: cfg.Feed.PollSchedule,
		retention:    cfg.Retention(),
		saveDir:      cfg.Downloads.SaveDir,
	}

	if key := cfg.Notifications.Pushbullet.APIKey; key != "" {
		m.notifiers = append(m.notifiers, notifications.NewPushbulletClient(key, logger))
	}

	go m.startFetchQueueWorker()

	return m
}

// Matcher exposes the engine for read-only collaborators.
func (m *Manager) Matcher() *Matcher {
	return m.matcher
}

func (m *Manager) SaveDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveDir
}

// UpdateConfig applies the tunables that can change at runtime. Feed URL
// and retention take effect on the next pass; a changed poll schedule
// requires a restart.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.matcher.SetRecencyWindow(cfg.RecencyWindow())

	m.mu.Lock()
	if cfg.Feed.PollSchedule != m.pollSchedule {
		m.logger.Warn("Poll schedule changed in config; restart to apply")
	}
	m.feedURL = cfg.Feed.URL
	m.retention = cfg.Retention()
	m.mu.Unlock()
}

func (m *Manager) StartScheduler() {
	m.mu.RLock()
	schedule := m.pollSchedule
	m.mu.RUnlock()

	if _, err := m.scheduler.AddFunc(schedule, m.RunScan); err != nil {
		m.logger.Error("Invalid poll schedule", schedule+":", err)
	}
	if _, err := m.scheduler.AddFunc("@daily", m.runArchiveSweep); err != nil {
		m.logger.Error("Failed to schedule archive sweep:", err)
	}
	m.scheduler.Start()

	m.logger.Info("Scheduler started. Performing initial feed scan.")
	go m.RunScan()
}

// Stop halts the scheduler and the fetch worker. The queue itself is never
// closed: scans spawned by cron or the API may still be running and must be
// able to attempt a send without panicking.
func (m *Manager) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	m.stopOnce.Do(func() { close(m.done) })
}

// RunScan performs one full pass: ingest the feed, run the matching engine,
// enqueue the winning candidates for download.
func (m *Manager) RunScan() {
	runID := uuid.New().String()[:8]

	m.mu.RLock()
	feedURL := m.feedURL
	m.mu.RUnlock()

	if feedURL == "" {
		m.logger.Warn("[scan", runID+"]", "No feed URL configured, skipping scan")
		return
	}

	m.logger.Info("[scan", runID+"]", "Starting feed scan:", feedURL)
	m.events.Publish(EventScan, map[string]string{"run_id": runID, "state": "started"})

	added, err := m.ingestFeed(runID, feedURL)
	if err != nil {
		m.logger.Error("[scan", runID+"]", "Feed ingest failed:", err)
		return
	}
	m.logger.Info("[scan", runID+"]", "Ingested", added, "new releases")

	result, err := m.matcher.FindMatches()
	if err != nil {
		m.logger.Error("[scan", runID+"]", "Matching pass failed:", err)
		return
	}

	for _, entryErr := range result.EntryErrors {
		m.logger.Warn("[scan", runID+"]", "Wishlist entry", entryErr.WishlistID,
			"("+entryErr.Title+") skipped:", entryErr.Reason)
	}

	m.logger.Info("[scan", runID+"]", "Found", len(result.Candidates), "candidates")
	for _, candidate := range result.Candidates {
		m.events.Publish(EventMatch, candidate)
		select {
		case m.fetchQueue <- candidate:
		case <-m.done:
			m.logger.Info("[scan", runID+"]", "Shutting down, dropping remaining candidates")
			return
		}
	}

	m.events.Publish(EventScan, map[string]string{"run_id": runID, "state": "finished"})
}

func (m *Manager) ingestFeed(runID, feedURL string) (int, error) {
	items, err := m.feedClient.Fetch(feedURL)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, item := range items {
		parsed, ok := ParseReleaseTitle(item.Title)
		if !ok {
			// Movies and unparseable titles are not ingested.
			m.logger.Debug("[scan", runID+"]", "Skipping non-episodic item:", item.Title)
			continue
		}

		exists, err := m.matcher.ReleaseExists(item.Link)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}

		release := &models.Release{
			Title:       parsed.Title,
			Episode:     parsed.Episode,
			Quality:     DetectQuality(parsed.Tags),
			Tags:        parsed.Tags,
			Category:    item.Category,
			Link:        item.Link,
			PublishedAt: item.Published,
		}
		if err := m.releaseRepo.Create(release); err != nil {
			return added, err
		}
		added++

		m.logger.Info("[scan", runID+"]", "New release:", release.Title, release.Episode,
			release.Quality, release.Link)
		m.events.Publish(EventRelease, release)
	}

	return added, nil
}

func (m *Manager) startFetchQueueWorker() {
	m.logger.Info("Fetch queue worker started.")
	for {
		select {
		case candidate := <-m.fetchQueue:
			m.fetchCandidate(candidate)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) fetchCandidate(candidate Candidate) {
	// Overlapping passes can race on download state; re-check before
	// transferring.
	downloaded, err := m.matcher.IsDownloaded(candidate.Title, candidate.Episode)
	if err != nil {
		m.logger.Error("Failed to re-check download state for", candidate.Title, candidate.Episode+":", err)
		return
	}
	if downloaded {
		m.logger.Debug("Already downloaded, skipping:", candidate.Title, candidate.Episode)
		return
	}

	savedPath, fetchErr := m.downloader.Fetch(candidate.Link)

	// The download row is recorded after the attempt either way, so the
	// (title, episode) pair is not retried forever on a dead link.
	download := &models.Download{
		Title:     candidate.Title,
		Episode:   candidate.Episode,
		ReleaseID: &candidate.ReleaseID,
	}
	if err := m.downloadRepo.Create(download); err != nil {
		m.logger.Error("Failed to record download for", candidate.Title, candidate.Episode+":", err)
		return
	}

	if fetchErr != nil {
		m.logger.Error("Fetch failed for", candidate.Title, candidate.Episode+":", fetchErr)
		for _, n := range m.notifiers {
			n.NotifyDownloadError(candidate.Title, candidate.Episode, fetchErr)
		}
		return
	}

	m.logger.Info("Fetched", candidate.Title, candidate.Episode, "->", savedPath,
		"(download id:", download.ID, ")")
	m.events.Publish(EventDownload, download)
	for _, n := range m.notifiers {
		n.NotifyDownloadComplete(candidate.Title, candidate.Episode, candidate.Quality, filepath.Base(savedPath))
	}
}

func (m *Manager) runArchiveSweep() {
	m.mu.RLock()
	retention := m.retention
	m.mu.RUnlock()

	cutoff := time.Now().Add(-retention)
	archived, err := m.releaseRepo.Archive(cutoff)
	if err != nil {
		m.logger.Error("Archive sweep failed:", err)
		return
	}
	if archived > 0 {
		m.logger.Info("Archived", archived, "releases older than", retention)
	}
}

// PreviewMatches runs a read-only matching pass without enqueueing anything.
func (m *Manager) PreviewMatches() (*MatchResult, error) {
	return m.matcher.FindMatches()
}

// --- Wishlist management ---

func (m *Manager) AddWishlistEntry(entry *models.WishlistEntry) error {
	if err := m.validateEntry(entry); err != nil {
		return err
	}
	if err := m.wishlistRepo.Create(entry); err != nil {
		return err
	}
	m.logger.Info("Added wishlist entry:", entry.Title)
	return nil
}

func (m *Manager) UpdateWishlistEntry(entry *models.WishlistEntry) error {
	if err := m.validateEntry(entry); err != nil {
		return err
	}
	return m.wishlistRepo.Update(entry)
}

func (m *Manager) DeleteWishlistEntry(id int64) error {
	return m.wishlistRepo.Delete(id)
}

func (m *Manager) GetWishlist() ([]models.WishlistEntry, error) {
	return m.wishlistRepo.GetAll()
}

// validateEntry enforces the creation-time contract: title required,
// patterns must compile. Match time never sees a pattern this rejected.
func (m *Manager) validateEntry(entry *models.WishlistEntry) error {
	if entry.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEntry)
	}
	if entry.IncludeTags != nil {
		if err := ValidatePattern(*entry.IncludeTags); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
	}
	if entry.ExcludeTags != nil {
		if err := ValidatePattern(*entry.ExcludeTags); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
	}
	return nil
}

// --- Read endpoints for the API ---

func (m *Manager) GetRecentReleases(window time.Duration) ([]models.Release, error) {
	return m.releaseRepo.GetRecent(time.Now().Add(-window))
}

func (m *Manager) GetDownloads(limit int) ([]models.Download, error) {
	return m.downloadRepo.GetAll(limit)
}

// Counts returns store sizes for the status endpoint.
func (m *Manager) Counts() (releases, downloads, wishlist int, err error) {
	releases, err = m.releaseRepo.Count()
	if err != nil {
		return 0, 0, 0, err
	}
	downloads, err = m.downloadRepo.Count()
	if err != nil {
		return 0, 0, 0, err
	}
	entries, err := m.wishlistRepo.GetAll()
	if err != nil {
		return 0, 0, 0, err
	}
	return releases, downloads, len(entries), nil
}

// TestNotifiers exercises every configured notifier.
func (m *Manager) TestNotifiers() error {
	for _, n := range m.notifiers {
		if err := n.Test(); err != nil {
			return err
		}
	}
	return nil
}
