package models

import (
	"database/sql"
	"fmt"
	"time"
)

// QualityUnknown is stored when no recognized resolution label is found
// in a release's tag blob.
const QualityUnknown = "unknown"

type Release struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Episode     string    `json:"episode" db:"episode"`
	Quality     string    `json:"quality" db:"quality"`
	Tags        string    `json:"tags" db:"tags"`
	Category    string    `json:"category" db:"category"`
	Link        string    `json:"link" db:"link"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}

type ReleaseRepository struct {
	db *sql.DB
}

func NewReleaseRepository(db *sql.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

func (r *ReleaseRepository) Create(release *Release) error {
	query := `
        INSERT INTO releases (title, episode, quality, tags, category, link, published_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	// Timestamps are stored as UTC text. The driver serializes time.Time
	// with its offset, and published_at comparisons are textual, so a feed
	// date carrying a non-zero offset would compare wrong unless normalized
	// here.
	result, err := r.db.Exec(query, release.Title, release.Episode, release.Quality,
		release.Tags, release.Category, release.Link, release.PublishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create release: %w", err)
	}

	id, _ := result.LastInsertId()
	release.ID = id
	release.AddedAt = time.Now()
	return nil
}

// Exists reports whether any release carries the given link, compared
// case-insensitively. Links differing only by case are the same release.
func (r *ReleaseRepository) Exists(link string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM releases WHERE link = ? COLLATE NOCASE)",
		link,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check release existence: %w", err)
	}
	return exists, nil
}

// FindRecentByTitle returns releases whose title equals the given title
// case-insensitively, published after since, with episode >= minEpisode
// (case-insensitive lexical compare; pass "" for no floor).
func (r *ReleaseRepository) FindRecentByTitle(title string, since time.Time, minEpisode string) ([]Release, error) {
	query := `
        SELECT id, title, episode, quality, tags, category, link, published_at, added_at
        FROM releases
        WHERE title = ? COLLATE NOCASE
          AND published_at > ?
          AND episode >= ? COLLATE NOCASE
        ORDER BY title, episode, quality
    `
	rows, err := r.db.Query(query, title, since.UTC(), minEpisode)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent releases: %w", err)
	}
	defer rows.Close()

	return scanReleases(rows)
}

// GetRecent returns all releases published after since, newest first.
func (r *ReleaseRepository) GetRecent(since time.Time) ([]Release, error) {
	query := `
        SELECT id, title, episode, quality, tags, category, link, published_at, added_at
        FROM releases
        WHERE published_at > ?
        ORDER BY published_at DESC
    `
	rows, err := r.db.Query(query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	return scanReleases(rows)
}

func (r *ReleaseRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM releases").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count releases: %w", err)
	}
	return count, nil
}

// Archive moves releases published before cutoff into releases_archive,
// skipping any release still referenced by a download row. Returns the
// number of archived releases.
func (r *ReleaseRepository) Archive(cutoff time.Time) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin archive transaction: %w", err)
	}

	predicate := `
        published_at < ?
        AND id NOT IN (SELECT release_id FROM downloads WHERE release_id IS NOT NULL)
    `

	result, err := tx.Exec(`
        INSERT INTO releases_archive (id, title, episode, quality, tags, category, link, published_at, added_at)
        SELECT id, title, episode, quality, tags, category, link, published_at, added_at
        FROM releases WHERE `+predicate, cutoff.UTC())
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to copy releases to archive: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM releases WHERE "+predicate, cutoff.UTC()); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to delete archived releases: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	archived, _ := result.RowsAffected()
	return archived, nil
}

func scanReleases(rows *sql.Rows) ([]Release, error) {
	var releases []Release
	for rows.Next() {
		var rel Release
		err := rows.Scan(&rel.ID, &rel.Title, &rel.Episode, &rel.Quality, &rel.Tags,
			&rel.Category, &rel.Link, &rel.PublishedAt, &rel.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		releases = append(releases, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating release rows: %w", err)
	}
	return releases, nil
}
