package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytboxd/internal/formatter"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// TagsList prints the tags of the signed-in account.
func (r *Runner) TagsList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	tags, err := lib.tags.List(lib.user.ID())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	if len(tags) == 0 {
		return r.writePlain("No tags yet. Tag a video with 'ytboxd tags add <video-id> <name>'.\n")
	}

	for _, tag := range tags {
		videos, err := lib.videos.List(lib.user.ID(), map[string]any{"tag_id": tag.ID()})
		if err != nil {
			return fmt.Errorf("failed to list tagged videos: %w", err)
		}
		r.writePlain("%s (%d)\n", tag.Name(), len(videos))
	}

	return nil
}

// TagsAdd links a tag to a video, creating the tag on first use.
func (r *Runner) TagsAdd(ctx context.Context, cmd *cli.Command) error {
	videoID := cmd.StringArg("video")
	name := strings.TrimSpace(cmd.StringArg("name"))
	if videoID == "" || name == "" {
		return fmt.Errorf("%w: usage: ytboxd tags add <video-id> <name>", shared.ErrMissingArgument)
	}

	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	video, err := lib.videos.GetByVideoID(lib.user.ID(), videoID)
	if err != nil {
		return err
	}

	tag, created, err := lib.tags.GetOrCreate(lib.user.ID(), name)
	if err != nil {
		return fmt.Errorf("failed to resolve tag: %w", err)
	}
	if created {
		r.logger.Info("created tag", "name", tag.Name())
	}

	if _, _, err := lib.videoTags.GetOrCreate(video.ID(), tag.ID()); err != nil {
		return fmt.Errorf("failed to link tag: %w", err)
	}

	return r.writePlain("✓ Tagged %s with %s\n", video.Title(), tag.Name())
}

// TagsRemove unlinks a tag from a video. The tag itself survives even
// when its last link is removed.
func (r *Runner) TagsRemove(ctx context.Context, cmd *cli.Command) error {
	videoID := cmd.StringArg("video")
	name := strings.TrimSpace(cmd.StringArg("name"))
	if videoID == "" || name == "" {
		return fmt.Errorf("%w: usage: ytboxd tags remove <video-id> <name>", shared.ErrMissingArgument)
	}

	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	video, err := lib.videos.GetByVideoID(lib.user.ID(), videoID)
	if err != nil {
		return err
	}

	tag, err := lib.tags.GetByName(lib.user.ID(), name)
	if err != nil {
		return err
	}

	if err := lib.videoTags.Delete(video.ID(), tag.ID()); err != nil {
		return fmt.Errorf("failed to remove tag: %w", err)
	}

	return r.writePlain("✓ Removed %s from %s\n", tag.Name(), video.Title())
}

// TagsNote sets the note on a video, replacing any existing text.
func (r *Runner) TagsNote(ctx context.Context, cmd *cli.Command) error {
	videoID := cmd.StringArg("video")
	text := cmd.StringArg("text")
	if videoID == "" {
		return fmt.Errorf("%w: usage: ytboxd tags note <video-id> <text>", shared.ErrMissingArgument)
	}

	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.videos.SetCustomDescription(lib.user.ID(), videoID, text); err != nil {
		return err
	}

	return r.writePlain("✓ Note saved\n")
}

// TagsExport writes a tag's videos to disk in the requested format.
func (r *Runner) TagsExport(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: usage: ytboxd tags export <name>", shared.ErrMissingArgument)
	}

	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	tag, err := lib.tags.GetByName(lib.user.ID(), name)
	if err != nil {
		return err
	}

	videos, err := lib.videos.List(lib.user.ID(), map[string]any{"tag_id": tag.ID()})
	if err != nil {
		return fmt.Errorf("failed to list tagged videos: %w", err)
	}

	export := &formatter.TagExport{Tag: tag, Videos: videos}
	output := cmd.String("output")

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return fmt.Errorf("failed to write CSV export: %w", err)
		}
		r.writePlain("✓ Wrote %s and %s\n", result.VideosFile, result.MetadataFile)
	case "markdown", "md":
		imageURL := ""
		if len(videos) > 0 {
			imageURL = videos[0].ThumbnailURL()
		}
		result, err := formatter.WriteMarkdownExport(export, output, imageURL)
		if err != nil {
			return fmt.Errorf("failed to write Markdown export: %w", err)
		}
		r.writePlain("✓ Wrote %d file(s) to %s\n", len(result.Files), result.Directory)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return fmt.Errorf("failed to write text export: %w", err)
		}
		r.writePlain("✓ Wrote %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	return nil
}
