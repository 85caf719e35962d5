package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytboxd/internal/tasks"
)

// SyncRun mirrors the remote library into the local database and prints
// a per-playlist, per-category summary.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	engine := r.buildEngine(lib)

	var result *tasks.SyncRunResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var runErr error
		result, runErr = engine.SyncAll(ctx, progress)
		return runErr
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	r.writePlainHeader("Sync complete")
	if result.PlaylistsErr != nil {
		r.writePlain("playlists: listing failed (%v), kept local copies\n", result.PlaylistsErr)
	}
	for _, p := range result.Playlists {
		if p.Skipped {
			r.writePlain("%s: skipped (%v)\n", p.Title, p.Err)
			continue
		}
		r.writePlain("%s: %d videos, +%d -%d\n", p.Title, p.Fetched, p.Added, p.Removed)
	}
	for _, c := range result.Categories {
		if c.Skipped {
			r.writePlain("%s: skipped (%v)\n", c.Category, c.Err)
			continue
		}
		if c.Restricted {
			r.writePlain("%s: restricted by policy, cleared %d\n", c.Category, c.Removed)
			continue
		}
		r.writePlain("%s: %d videos, +%d -%d\n", c.Category, c.Fetched, c.Added, c.Removed)
	}

	return nil
}
