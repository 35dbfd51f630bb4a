package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tuneshift/internal/repositories"
	"tuneshift/internal/shared"
)

// openThumbnailRepo opens the configured database and returns the cache
// repository plus a close func.
func (r *Runner) openThumbnailRepo() (*repositories.ThumbnailRepository, func() error, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewThumbnailRepository(db), db.Close, nil
}

// CacheStats reports thumbnail cache entry count and stored bytes.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openThumbnailRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := repo.Stats()
	if err != nil {
		return err
	}

	r.writePlain("Entries: %d\n", stats.Entries)
	r.writePlain("Size: %.1f KiB\n", float64(stats.TotalBytes)/1024)

	return nil
}

// CacheClear empties the thumbnail cache.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openThumbnailRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := repo.Stats()
	if err != nil {
		return err
	}

	if err := repo.Clear(); err != nil {
		return err
	}

	r.logger.Infof("cleared %d cached thumbnails", stats.Entries)
	r.writePlain("✓ Cleared %d entries\n", stats.Entries)

	return nil
}
