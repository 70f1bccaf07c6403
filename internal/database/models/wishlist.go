package models

import (
	"database/sql"
	"fmt"
	"time"
)

// WishlistEntry is a standing subscription. MinEpisode, IncludeTags and
// ExcludeTags are independently optional; nil means no floor / no filter.
type WishlistEntry struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	MinEpisode  *string   `json:"min_episode" db:"min_episode"`
	IncludeTags *string   `json:"include_tags" db:"include_tags"`
	ExcludeTags *string   `json:"exclude_tags" db:"exclude_tags"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type WishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) Create(entry *WishlistEntry) error {
	query := `
        INSERT INTO wishlist (title, min_episode, include_tags, exclude_tags)
        VALUES (?, ?, ?, ?)
    `
	result, err := r.db.Exec(query, entry.Title, entry.MinEpisode, entry.IncludeTags, entry.ExcludeTags)
	if err != nil {
		return fmt.Errorf("failed to create wishlist entry: %w", err)
	}

	id, _ := result.LastInsertId()
	entry.ID = id
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	return nil
}

func (r *WishlistRepository) GetByID(id int64) (*WishlistEntry, error) {
	query := `
        SELECT id, title, min_episode, include_tags, exclude_tags, created_at, updated_at
        FROM wishlist WHERE id = ?
    `
	row := r.db.QueryRow(query, id)

	var e WishlistEntry
	err := row.Scan(&e.ID, &e.Title, &e.MinEpisode, &e.IncludeTags, &e.ExcludeTags,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wishlist entry: %w", err)
	}
	return &e, nil
}

func (r *WishlistRepository) GetAll() ([]WishlistEntry, error) {
	query := `
        SELECT id, title, min_episode, include_tags, exclude_tags, created_at, updated_at
        FROM wishlist ORDER BY title COLLATE NOCASE
    `
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var entries []WishlistEntry
	for rows.Next() {
		var e WishlistEntry
		err := rows.Scan(&e.ID, &e.Title, &e.MinEpisode, &e.IncludeTags, &e.ExcludeTags,
			&e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist rows: %w", err)
	}
	return entries, nil
}

func (r *WishlistRepository) Update(entry *WishlistEntry) error {
	query := `
        UPDATE wishlist
        SET title = ?, min_episode = ?, include_tags = ?, exclude_tags = ?,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `
	result, err := r.db.Exec(query, entry.Title, entry.MinEpisode, entry.IncludeTags,
		entry.ExcludeTags, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update wishlist entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("wishlist entry %d not found", entry.ID)
	}
	return nil
}

func (r *WishlistRepository) Delete(id int64) error {
	_, err := r.db.Exec("DELETE FROM wishlist WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist entry: %w", err)
	}
	return nil
}
