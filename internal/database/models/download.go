package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Download records that a (title, episode) pair has been fetched. Rows are
// append-only and never deleted; ReleaseID is a soft reference, the release
// it points at may have been archived.
type Download struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Episode   string    `json:"episode" db:"episode"`
	ReleaseID *int64    `json:"release_id" db:"release_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type DownloadRepository struct {
	db *sql.DB
}

func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

func (r *DownloadRepository) Create(download *Download) error {
	query := `INSERT INTO downloads (title, episode, release_id) VALUES (?, ?, ?)`
	result, err := r.db.Exec(query, download.Title, download.Episode, download.ReleaseID)
	if err != nil {
		return fmt.Errorf("failed to create download: %w", err)
	}

	id, _ := result.LastInsertId()
	download.ID = id
	download.CreatedAt = time.Now()
	return nil
}

// Exists reports whether any download row matches both title and episode
// case-insensitively. Duplicate rows for the same pair are tolerated and
// treated as plain existence.
func (r *DownloadRepository) Exists(title, episode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM downloads WHERE title = ? COLLATE NOCASE AND episode = ? COLLATE NOCASE)",
		title, episode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check download existence: %w", err)
	}
	return exists, nil
}

func (r *DownloadRepository) GetAll(limit int) ([]Download, error) {
	query := `
        SELECT id, title, episode, release_id, created_at
        FROM downloads ORDER BY created_at DESC LIMIT ?
    `
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.ID, &d.Title, &d.Episode, &d.ReleaseID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating download rows: %w", err)
	}
	return downloads, nil
}

func (r *DownloadRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM downloads").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count downloads: %w", err)
	}
	return count, nil
}
