package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"tuneshift/internal/shared"
)

// Thumbnail is one cached image blob.
type Thumbnail struct {
	ID          string
	URL         string
	ContentType string
	Data        []byte
	FetchedAt   time.Time
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries    int
	TotalBytes int64
}

// ThumbnailRepository stores thumbnail bytes in sqlite.
type ThumbnailRepository struct {
	db *sql.DB
}

// NewThumbnailRepository creates a repository over an open database.
func NewThumbnailRepository(db *sql.DB) *ThumbnailRepository {
	return &ThumbnailRepository{db: db}
}

// Get retrieves a cached thumbnail by remote ID. Returns nil without error
// on a cache miss.
func (r *ThumbnailRepository) Get(id string) (*Thumbnail, error) {
	query := `
		SELECT id, url, content_type, data, fetched_at
		FROM thumbnails
		WHERE id = ?
	`

	var t Thumbnail
	err := r.db.QueryRow(query, id).Scan(&t.ID, &t.URL, &t.ContentType, &t.Data, &t.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thumbnail: %w", err)
	}

	return &t, nil
}

// Put stores or replaces a thumbnail.
func (r *ThumbnailRepository) Put(t *Thumbnail) error {
	if t.ID == "" {
		return fmt.Errorf("%w: thumbnail ID required", shared.ErrInvalidArgument)
	}
	if t.FetchedAt.IsZero() {
		t.FetchedAt = time.Now().UTC()
	}
	if t.ContentType == "" {
		t.ContentType = "image/jpeg"
	}

	query := `
		INSERT INTO thumbnails (id, url, content_type, data, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			content_type = excluded.content_type,
			data = excluded.data,
			fetched_at = excluded.fetched_at
	`

	if _, err := r.db.Exec(query, t.ID, t.URL, t.ContentType, t.Data, t.FetchedAt); err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}

	return nil
}

// Delete removes a thumbnail by ID. Deleting a missing entry is not an error.
func (r *ThumbnailRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM thumbnails WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	return nil
}

// Clear empties the cache.
func (r *ThumbnailRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM thumbnails"); err != nil {
		return fmt.Errorf("failed to clear thumbnails: %w", err)
	}
	return nil
}

// Stats reports entry count and total stored bytes.
func (r *ThumbnailRepository) Stats() (*CacheStats, error) {
	var stats CacheStats
	err := r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0) FROM thumbnails").
		Scan(&stats.Entries, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache stats: %w", err)
	}
	return &stats, nil
}

// ThumbnailCache memoizes thumbnail downloads through a ThumbnailRepository.
type ThumbnailCache struct {
	repo       *ThumbnailRepository
	httpClient *http.Client
}

// NewThumbnailCache creates a cache over the repository. A nil client falls
// back to a 10s-timeout default.
func NewThumbnailCache(repo *ThumbnailRepository, client *http.Client) *ThumbnailCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ThumbnailCache{repo: repo, httpClient: client}
}

// Fetch returns the cached bytes for id, downloading and storing them on a
// miss. The URL is only contacted when the cache has no entry.
func (c *ThumbnailCache) Fetch(ctx context.Context, id, url string) ([]byte, error) {
	if cached, err := c.repo.Get(id); err != nil {
		return nil, err
	} else if cached != nil {
		return cached.Data, nil
	}

	if url == "" {
		return nil, fmt.Errorf("%w: no thumbnail URL for %s", shared.ErrInvalidArgument, id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: thumbnail fetch returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail body: %w", err)
	}

	entry := &Thumbnail{
		ID:          id,
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := c.repo.Put(entry); err != nil {
		return nil, err
	}

	return data, nil
}
