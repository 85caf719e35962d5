package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytboxd/internal/shared"
	"github.com/desertthunder/ytboxd/internal/tasks"
)

// SnapshotSave exports the tag layer to the configured Drive folder.
func (r *Runner) SnapshotSave(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	engine := r.buildEngine(lib)

	var result *tasks.SnapshotResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var runErr error
		result, runErr = engine.ExportSnapshot(ctx, progress)
		return runErr
	})
	if err != nil {
		return fmt.Errorf("snapshot save failed: %w", err)
	}

	r.writePlain("✓ Saved %d tag(s) and %d link(s) to %s\n",
		result.Tags, result.Links, lib.config.Drive.SnapshotName)
	return nil
}

// SnapshotLoad restores tags, links and missing notes from the Drive
// snapshot. Videos absent from the local library are skipped.
func (r *Runner) SnapshotLoad(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	engine := r.buildEngine(lib)

	var result *tasks.SnapshotResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var runErr error
		result, runErr = engine.ImportSnapshot(ctx, progress)
		return runErr
	})
	if err != nil {
		if errors.Is(err, shared.ErrSnapshotMissing) {
			return fmt.Errorf("%w: run 'ytboxd snapshot save' first", shared.ErrSnapshotMissing)
		}
		return fmt.Errorf("snapshot load failed: %w", err)
	}

	r.writePlain("✓ Restored %d tag(s) and %d link(s)\n", result.Tags, result.Links)
	if result.Skipped > 0 {
		r.writePlain("Skipped %d video(s) not present locally. Run 'ytboxd sync' and load again.\n", result.Skipped)
	}
	return nil
}
