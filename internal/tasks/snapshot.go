package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
)

const snapshotContentType = "application/json"

// ExportSnapshot serializes the tag layer and writes it to cloud
// storage, replacing any previous snapshot document.
func (e *LibraryEngine) ExportSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: snapshot store not initialized", shared.ErrMissingCredentials)
	}

	e.sendProgress(progress, exportSnapshotUpdate(1, 3, "Collecting tags..."))

	tags, err := e.tags.List(e.user.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	snapshot := models.Snapshot{
		User:       e.user.Email(),
		ExportedAt: time.Now().UTC(),
		Tags:       make(map[string]models.SnapshotTag, len(tags)),
	}

	result := &SnapshotResult{Tags: len(tags)}

	for _, tag := range tags {
		links, err := e.videoTags.ListByTag(tag.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to list links for tag %s: %w", tag.Name(), err)
		}

		addedAt := make(map[string]time.Time, len(links))
		for _, link := range links {
			addedAt[link.VideoID()] = link.CreatedAt()
		}

		videos, err := e.videos.List(e.user.ID(), map[string]any{"tag_id": tag.ID()})
		if err != nil {
			return nil, fmt.Errorf("failed to list videos for tag %s: %w", tag.Name(), err)
		}

		createdAt := tag.CreatedAt()
		entry := models.SnapshotTag{
			ID:        tag.ID(),
			CreatedAt: &createdAt,
			Videos:    make([]models.SnapshotVideo, 0, len(videos)),
		}

		for _, video := range videos {
			item := models.SnapshotVideo{
				VideoID:           video.VideoID(),
				Title:             video.Title(),
				ThumbnailURL:      video.ThumbnailURL(),
				CustomDescription: video.CustomDescription(),
			}
			if linked, ok := addedAt[video.ID()]; ok {
				item.AddedAt = &linked
			}
			entry.Videos = append(entry.Videos, item)
			result.Links++
		}

		snapshot.Tags[tag.Name()] = entry
	}

	content, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	e.sendProgress(progress, exportSnapshotUpdate(2, 3, "Locating snapshot file..."))

	folderID, err := e.store.EnsureFolder(ctx, e.drive.FolderName)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, exportSnapshotUpdate(3, 3, "Uploading snapshot..."))

	fileID, err := e.store.FindFile(ctx, folderID, e.drive.SnapshotName)
	switch {
	case errors.Is(err, shared.ErrSnapshotMissing):
		fileID, err = e.store.CreateFile(ctx, folderID, e.drive.SnapshotName, snapshotContentType, content)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := e.store.UpdateFile(ctx, fileID, snapshotContentType, content); err != nil {
			return nil, err
		}
	}

	result.FileID = fileID
	e.logger.Info("snapshot exported", "tags", result.Tags, "links", result.Links, "file", fileID)

	return result, nil
}

// ImportSnapshot downloads the snapshot document and merges its tag
// layer into the local library.
//
// Tags and links are recreated idempotently. Snapshot videos not present
// locally are skipped without failing the import, since the library may
// not have been synced on this machine yet. Annotations only fill empty
// local notes.
func (e *LibraryEngine) ImportSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: snapshot store not initialized", shared.ErrMissingCredentials)
	}

	e.sendProgress(progress, importSnapshotUpdate(1, 3, "Locating snapshot file..."))

	folderID, err := e.store.EnsureFolder(ctx, e.drive.FolderName)
	if err != nil {
		return nil, err
	}

	fileID, err := e.store.FindFile(ctx, folderID, e.drive.SnapshotName)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, importSnapshotUpdate(2, 3, "Downloading snapshot..."))

	content, err := e.store.Download(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(content, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSnapshotParse, err)
	}

	e.sendProgress(progress, importSnapshotUpdate(3, 3, "Recreating tags..."))

	result := &SnapshotResult{FileID: fileID}

	for name, entry := range snapshot.Tags {
		tag, _, err := e.tags.GetOrCreate(e.user.ID(), name)
		if err != nil {
			return result, fmt.Errorf("failed to recreate tag %s: %w", name, err)
		}
		result.Tags++

		for _, item := range entry.Videos {
			video, err := e.videos.GetByVideoID(e.user.ID(), item.VideoID)
			if errors.Is(err, shared.ErrVideoNotFound) {
				result.Skipped++
				continue
			}
			if err != nil {
				return result, err
			}

			if _, _, err := e.videoTags.GetOrCreate(video.ID(), tag.ID()); err != nil {
				return result, fmt.Errorf("failed to recreate link for %s: %w", item.VideoID, err)
			}
			result.Links++

			if err := e.videos.BackfillCustomDescription(e.user.ID(), item.VideoID, item.CustomDescription); err != nil {
				return result, err
			}
		}
	}

	e.logger.Info("snapshot imported", "tags", result.Tags, "links", result.Links, "skipped", result.Skipped)

	return result, nil
}
