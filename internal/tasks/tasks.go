package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/services"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// CategorySyncResult describes one category pass of a sync run.
type CategorySyncResult struct {
	Category   models.Category // Category that was reconciled
	Fetched    int             // Records the remote reported
	Added      int             // Videos newly flagged in this category
	Removed    int             // Videos whose flag was cleared
	Restricted bool            // The remote withheld the listing by policy
	Skipped    bool            // The category was left untouched
	Err        error           // Fetch error when skipped
}

// PlaylistSyncResult describes the membership pass for one playlist.
type PlaylistSyncResult struct {
	PlaylistID string
	Title      string
	Fetched    int
	Added      int
	Removed    int
	Skipped    bool
	Err        error
}

// SyncRunResult contains all data from a full library sync.
type SyncRunResult struct {
	Playlists    []PlaylistSyncResult // Per-playlist membership passes
	Categories   []CategorySyncResult // Liked, saved and history passes
	PlaylistsErr error                // Set when the playlist listing itself failed
}

// SnapshotResult describes a completed snapshot export or import.
type SnapshotResult struct {
	FileID  string // Drive file id of the snapshot document
	Tags    int    // Tags written or recreated
	Links   int    // Video-tag links written or recreated
	Skipped int    // Import only: snapshot videos absent from the library
}

// SnapshotStore is the subset of the Drive client the engine needs for
// snapshot documents.
type SnapshotStore interface {
	EnsureFolder(ctx context.Context, name string) (string, error)
	FindFile(ctx context.Context, folderID, name string) (string, error)
	CreateFile(ctx context.Context, folderID, name, contentType string, content []byte) (string, error)
	UpdateFile(ctx context.Context, fileID, contentType string, content []byte) error
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// SyncEngine defines operations for mirroring the remote library locally.
type SyncEngine interface {
	// SyncAll performs a full sync pass: playlists and their membership
	// first, then liked videos, then the watch-later list, then a
	// best-effort pass over watch history.
	SyncAll(ctx context.Context, progress chan<- ProgressUpdate) (*SyncRunResult, error)

	// SyncCategory reconciles a single category, leaving playlists and
	// the other categories untouched.
	SyncCategory(ctx context.Context, category models.Category, progress chan<- ProgressUpdate) (*SyncRunResult, error)

	// ExportSnapshot serializes the tag layer to a JSON document and
	// creates or replaces the snapshot file in cloud storage.
	ExportSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error)

	// ImportSnapshot downloads the snapshot document and recreates tags,
	// links and missing annotations in the local library.
	ImportSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error)
}

// LibraryEngine implements [SyncEngine] over one user's library.
type LibraryEngine struct {
	source    services.VideoSource
	store     SnapshotStore
	videos    *repositories.VideoRepository
	playlists *repositories.PlaylistRepository
	tags      *repositories.TagRepository
	videoTags *repositories.VideoTagRepository
	user      *models.User
	drive     shared.DriveConfig
	logger    *log.Logger
}

// EngineConfig collects the dependencies of a [LibraryEngine].
type EngineConfig struct {
	Source    services.VideoSource
	Store     SnapshotStore
	Videos    *repositories.VideoRepository
	Playlists *repositories.PlaylistRepository
	Tags      *repositories.TagRepository
	VideoTags *repositories.VideoTagRepository
	User      *models.User
	Drive     shared.DriveConfig
	Logger    *log.Logger
}

// NewLibraryEngine creates a LibraryEngine from its dependencies.
func NewLibraryEngine(cfg EngineConfig) *LibraryEngine {
	logger := cfg.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &LibraryEngine{
		source:    cfg.Source,
		store:     cfg.Store,
		videos:    cfg.Videos,
		playlists: cfg.Playlists,
		tags:      cfg.Tags,
		videoTags: cfg.VideoTags,
		user:      cfg.User,
		drive:     cfg.Drive,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SyncAll performs a full library sync.
//
// A fetch failure never removes local data: the failing playlist or
// category is skipped and reported in the result while the remaining
// passes run. Only an authoritative response, including a policy-
// restricted empty listing, drives removals.
func (e *LibraryEngine) SyncAll(ctx context.Context, progress chan<- ProgressUpdate) (*SyncRunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: video source not initialized", shared.ErrMissingCredentials)
	}

	result := &SyncRunResult{}

	e.sendProgress(progress, fetchPlaylistsUpdate(1, 1))

	remotePlaylists, err := e.source.Playlists(ctx)
	if err != nil {
		e.logger.Warn("playlist listing failed, skipping membership pass", "err", err)
		result.PlaylistsErr = err
	}

	total := len(remotePlaylists)
	for i, record := range remotePlaylists {
		if models.IsSystemPlaylist(record.PlaylistID) {
			continue
		}

		e.sendProgress(progress, syncPlaylistUpdate(i+1, total, record.Title))
		result.Playlists = append(result.Playlists, e.syncPlaylist(ctx, record))
	}

	categories := 3

	e.sendProgress(progress, syncCategoryUpdate(1, categories, models.CategoryLiked))
	liked := e.syncLiked(ctx)
	e.sendProgress(progress, categoryDoneUpdate(1, categories, liked))
	result.Categories = append(result.Categories, liked)

	e.sendProgress(progress, syncCategoryUpdate(2, categories, models.CategorySaved))
	saved := e.syncSystemList(ctx, models.CategorySaved, models.WatchLaterPlaylistID)
	e.sendProgress(progress, categoryDoneUpdate(2, categories, saved))
	result.Categories = append(result.Categories, saved)

	e.sendProgress(progress, syncCategoryUpdate(3, categories, models.CategoryHistory))
	history := e.syncSystemList(ctx, models.CategoryHistory, models.HistoryPlaylistID)
	e.sendProgress(progress, categoryDoneUpdate(3, categories, history))
	result.Categories = append(result.Categories, history)

	return result, nil
}

// SyncCategory reconciles one category on demand. Playlist membership
// and the other categories are left alone; the same fail-safe applies,
// so a fetch failure keeps the stored flags.
func (e *LibraryEngine) SyncCategory(ctx context.Context, category models.Category, progress chan<- ProgressUpdate) (*SyncRunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: video source not initialized", shared.ErrMissingCredentials)
	}

	e.sendProgress(progress, syncCategoryUpdate(1, 1, category))

	var pass CategorySyncResult
	switch category {
	case models.CategoryLiked:
		pass = e.syncLiked(ctx)
	case models.CategorySaved:
		pass = e.syncSystemList(ctx, models.CategorySaved, models.WatchLaterPlaylistID)
	case models.CategoryHistory:
		pass = e.syncSystemList(ctx, models.CategoryHistory, models.HistoryPlaylistID)
	default:
		return nil, fmt.Errorf("unknown category: %v", category)
	}

	e.sendProgress(progress, categoryDoneUpdate(1, 1, pass))

	return &SyncRunResult{Categories: []CategorySyncResult{pass}}, nil
}

// syncPlaylist stores a playlist's metadata and reconciles its
// membership. A fetch failure skips the playlist without touching the
// stored membership.
func (e *LibraryEngine) syncPlaylist(ctx context.Context, record services.PlaylistRecord) PlaylistSyncResult {
	result := PlaylistSyncResult{PlaylistID: record.PlaylistID, Title: record.Title}

	playlist := models.NewPlaylist(e.user.ID(), record.PlaylistID)
	playlist.SetTitle(record.Title)
	playlist.SetDescription(record.Description)
	playlist.SetThumbnailURL(record.ThumbnailURL)
	playlist.SetItemCount(record.ItemCount)
	playlist.SetChannelID(record.ChannelID)

	if err := e.playlists.Upsert(playlist); err != nil {
		result.Skipped = true
		result.Err = err
		return result
	}

	fetched, err := e.source.PlaylistItems(ctx, record.PlaylistID)
	if err != nil {
		e.logger.Warn("playlist fetch failed, keeping stored membership", "playlist", record.PlaylistID, "err", err)
		result.Skipped = true
		result.Err = err
		return result
	}

	result.Fetched = len(fetched.Records)

	added, removed, err := e.reconcileMembership(playlist, fetched.Records)
	if err != nil {
		result.Skipped = true
		result.Err = err
		return result
	}

	result.Added = added
	result.Removed = removed
	return result
}

// syncLiked reconciles the liked-videos category.
func (e *LibraryEngine) syncLiked(ctx context.Context) CategorySyncResult {
	result := CategorySyncResult{Category: models.CategoryLiked}

	records, err := e.source.LikedVideos(ctx)
	if err != nil {
		e.logger.Warn("liked videos fetch failed, keeping stored flags", "err", err)
		result.Skipped = true
		result.Err = err
		return result
	}

	result.Fetched = len(records)
	result.Added, result.Removed, result.Err = e.reconcileCategory(models.CategoryLiked, records)
	result.Skipped = result.Err != nil
	return result
}

// syncSystemList reconciles a category backed by one of the platform's
// built-in playlists. A policy-restricted listing counts as an
// authoritative empty set and clears the category's flags.
func (e *LibraryEngine) syncSystemList(ctx context.Context, c models.Category, playlistID string) CategorySyncResult {
	result := CategorySyncResult{Category: c}

	fetched, err := e.source.PlaylistItems(ctx, playlistID)
	if err != nil {
		e.logger.Warn("category fetch failed, keeping stored flags", "category", c, "err", err)
		result.Skipped = true
		result.Err = err
		return result
	}

	result.Fetched = len(fetched.Records)
	result.Restricted = fetched.Restricted

	result.Added, result.Removed, result.Err = e.reconcileCategory(c, fetched.Records)
	result.Skipped = result.Err != nil
	return result
}
