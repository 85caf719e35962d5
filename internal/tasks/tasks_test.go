package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/services"
	"github.com/desertthunder/ytboxd/internal/shared"
	ytxtest "github.com/desertthunder/ytboxd/internal/testing"
)

type engineFixture struct {
	engine *LibraryEngine
	db     *sql.DB
	userID string
	videos *repositories.VideoRepository
	tags   *repositories.TagRepository
	links  *repositories.VideoTagRepository
}

func setupEngine(t *testing.T, source services.VideoSource, store SnapshotStore) *engineFixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	users := repositories.NewUserRepository(db)
	user := models.NewUser(0, "viewer@example.com", "Viewer")
	if err := users.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	videos := repositories.NewVideoRepository(db)
	tags := repositories.NewTagRepository(db)
	links := repositories.NewVideoTagRepository(db)

	engine := NewLibraryEngine(EngineConfig{
		Source:    source,
		Store:     store,
		Videos:    videos,
		Playlists: repositories.NewPlaylistRepository(db),
		Tags:      tags,
		VideoTags: links,
		User:      user,
		Drive:     shared.DriveConfig{FolderName: "YouTuBoxd Data", SnapshotName: "youtuboxd_tags.json"},
	})

	return &engineFixture{
		engine: engine,
		db:     db,
		userID: user.ID(),
		videos: videos,
		tags:   tags,
		links:  links,
	}
}

func record(id, title string) services.VideoRecord {
	return services.VideoRecord{
		VideoID:      id,
		Title:        title,
		ChannelTitle: "Channel",
		PublishedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func mustVideo(t *testing.T, f *engineFixture, videoID string) *models.Video {
	t.Helper()
	video, err := f.videos.GetByVideoID(f.userID, videoID)
	if err != nil {
		t.Fatalf("failed to load video %s: %v", videoID, err)
	}
	return video
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors playlists and categories", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			PlaylistRecords: []services.PlaylistRecord{
				{PlaylistID: "PL1", Title: "Cooking", ItemCount: 2},
			},
			Items: map[string]*services.FetchResult{
				"PL1": {Records: []services.VideoRecord{record("vid1", "Knife skills"), record("vid2", "Stocks")}},
				models.WatchLaterPlaylistID: {Records: []services.VideoRecord{record("vid3", "Later")}},
				models.HistoryPlaylistID:    {Restricted: true},
			},
			Liked: []services.VideoRecord{record("vid1", "Knife skills"), record("vid4", "Lo-fi mix")},
		}

		f := setupEngine(t, source, nil)

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Playlists) != 1 || result.Playlists[0].Added != 2 {
			t.Errorf("expected one playlist with 2 added members, got %+v", result.Playlists)
		}
		if result.Categories[0].Added != 2 {
			t.Errorf("expected 2 liked videos added, got %d", result.Categories[0].Added)
		}
		if result.Categories[1].Added != 1 {
			t.Errorf("expected 1 saved video added, got %d", result.Categories[1].Added)
		}
		if !result.Categories[2].Restricted {
			t.Error("expected the history pass to report restriction")
		}

		if v := mustVideo(t, f, "vid1"); !v.IsLiked() || v.PlaylistID() != "PL1" {
			t.Errorf("expected vid1 liked and in PL1, got liked=%v playlist=%s", v.IsLiked(), v.PlaylistID())
		}
		if v := mustVideo(t, f, "vid3"); !v.IsSaved() {
			t.Error("expected vid3 to be saved")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Liked: []services.VideoRecord{record("vid1", "Knife skills")},
			Items: map[string]*services.FetchResult{},
		}

		f := setupEngine(t, source, nil)

		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if result.Categories[0].Added != 0 || result.Categories[0].Removed != 0 {
			t.Errorf("expected the second pass to be a no-op, got %+v", result.Categories[0])
		}
	})

	t.Run("clears exactly the flag of the removed category", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Liked: []services.VideoRecord{record("vid1", "Knife skills"), record("vid2", "Stocks")},
			Items: map[string]*services.FetchResult{
				models.WatchLaterPlaylistID: {Records: []services.VideoRecord{record("vid2", "Stocks")}},
			},
		}

		f := setupEngine(t, source, nil)
		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		// vid2 drops out of liked but stays in watch later
		source.Liked = []services.VideoRecord{record("vid1", "Knife skills")}

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if result.Categories[0].Removed != 1 {
			t.Errorf("expected 1 liked removal, got %d", result.Categories[0].Removed)
		}

		v := mustVideo(t, f, "vid2")
		if v.IsLiked() {
			t.Error("expected vid2 liked flag to be cleared")
		}
		if !v.IsSaved() {
			t.Error("expected vid2 saved flag to survive the liked removal")
		}
	})

	t.Run("preserves annotations across syncs", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Liked: []services.VideoRecord{record("vid1", "Knife skills")},
			Items: map[string]*services.FetchResult{},
		}

		f := setupEngine(t, source, nil)
		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		if err := f.videos.SetCustomDescription(f.userID, "vid1", "rewatch before the exam"); err != nil {
			t.Fatalf("failed to annotate: %v", err)
		}

		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("second sync failed: %v", err)
		}

		if v := mustVideo(t, f, "vid1"); v.CustomDescription() != "rewatch before the exam" {
			t.Errorf("expected annotation to survive, got %q", v.CustomDescription())
		}
	})

	t.Run("keeps flags when a category fetch fails", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Liked: []services.VideoRecord{record("vid1", "Knife skills")},
			Items: map[string]*services.FetchResult{},
		}

		f := setupEngine(t, source, nil)
		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		source.LikedErr = fmt.Errorf("%w: upstream 500", shared.ErrAPIRequest)

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if !result.Categories[0].Skipped {
			t.Error("expected the liked pass to be skipped")
		}

		if v := mustVideo(t, f, "vid1"); !v.IsLiked() {
			t.Error("expected liked flag to survive a fetch failure")
		}
	})

	t.Run("clears flags on a restricted listing", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Items: map[string]*services.FetchResult{
				models.WatchLaterPlaylistID: {Records: []services.VideoRecord{record("vid1", "Later")}},
			},
		}

		f := setupEngine(t, source, nil)
		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		// the platform now withholds the list: authoritative empty
		source.Items[models.WatchLaterPlaylistID] = &services.FetchResult{Restricted: true}

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if !result.Categories[1].Restricted {
			t.Error("expected the saved pass to report restriction")
		}
		if result.Categories[1].Removed != 1 {
			t.Errorf("expected 1 saved removal, got %d", result.Categories[1].Removed)
		}

		if v := mustVideo(t, f, "vid1"); v.IsSaved() {
			t.Error("expected saved flag cleared on a restricted listing")
		}
	})

	t.Run("continues past a failed playlist listing", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			PlaylistsErr: fmt.Errorf("%w: upstream 500", shared.ErrAPIRequest),
			Liked:        []services.VideoRecord{record("vid1", "Knife skills")},
			Items:        map[string]*services.FetchResult{},
		}

		f := setupEngine(t, source, nil)

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.PlaylistsErr == nil {
			t.Error("expected the playlist failure to be reported")
		}
		if result.Categories[0].Added != 1 {
			t.Error("expected the liked pass to run despite the playlist failure")
		}
	})

	t.Run("keeps membership when a playlist fetch fails", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			PlaylistRecords: []services.PlaylistRecord{{PlaylistID: "PL1", Title: "Cooking"}},
			Items: map[string]*services.FetchResult{
				"PL1": {Records: []services.VideoRecord{record("vid1", "Knife skills")}},
			},
		}

		f := setupEngine(t, source, nil)
		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		// a denied user playlist is a failure, not an empty listing
		source.ItemsErr = map[string]error{
			"PL1": fmt.Errorf("%w: playlist PL1: status 403", shared.ErrAPIRequest),
		}

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if !result.Playlists[0].Skipped || result.Playlists[0].Err == nil {
			t.Errorf("expected the playlist pass to be skipped with an error, got %+v", result.Playlists[0])
		}
		if result.Playlists[0].Removed != 0 {
			t.Errorf("expected no removals on a failed fetch, got %d", result.Playlists[0].Removed)
		}

		if v := mustVideo(t, f, "vid1"); v.PlaylistID() != "PL1" {
			t.Errorf("expected vid1 to stay in PL1, got %q", v.PlaylistID())
		}
	})

	t.Run("removes stale playlist membership", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			PlaylistRecords: []services.PlaylistRecord{{PlaylistID: "PL1", Title: "Cooking"}},
			Items: map[string]*services.FetchResult{
				"PL1": {Records: []services.VideoRecord{record("vid1", "Knife skills"), record("vid2", "Stocks")}},
			},
		}

		f := setupEngine(t, source, nil)
		if _, err := f.engine.SyncAll(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		source.Items["PL1"] = &services.FetchResult{Records: []services.VideoRecord{record("vid1", "Knife skills")}}

		result, err := f.engine.SyncAll(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if result.Playlists[0].Removed != 1 {
			t.Errorf("expected 1 membership removal, got %d", result.Playlists[0].Removed)
		}

		if v := mustVideo(t, f, "vid2"); v.PlaylistID() != "" {
			t.Errorf("expected vid2 playlist reference cleared, got %s", v.PlaylistID())
		}
	})

	t.Run("reports progress without blocking", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{Items: map[string]*services.FetchResult{}}
		f := setupEngine(t, source, nil)

		// unbuffered channel nobody reads: updates must be dropped, not block
		progress := make(chan ProgressUpdate)
		if _, err := f.engine.SyncAll(ctx, progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestSyncCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles only the requested category", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Liked: []services.VideoRecord{record("vid1", "Knife skills")},
			Items: map[string]*services.FetchResult{
				models.WatchLaterPlaylistID: {Records: []services.VideoRecord{record("vid2", "Stocks")}},
			},
		}

		f := setupEngine(t, source, nil)

		result, err := f.engine.SyncCategory(ctx, models.CategoryLiked, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Categories) != 1 || result.Categories[0].Category != models.CategoryLiked {
			t.Fatalf("expected a single liked pass, got %+v", result.Categories)
		}
		if result.Categories[0].Added != 1 {
			t.Errorf("expected 1 liked addition, got %d", result.Categories[0].Added)
		}
		if len(result.Playlists) != 0 {
			t.Errorf("expected no playlist passes, got %+v", result.Playlists)
		}

		// the watch-later list was not touched
		if _, err := f.videos.GetByVideoID(f.userID, "vid2"); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected vid2 to stay unknown, got %v", err)
		}
	})

	t.Run("saved maps to the watch-later list", func(t *testing.T) {
		source := &ytxtest.MockVideoSource{
			Items: map[string]*services.FetchResult{
				models.WatchLaterPlaylistID: {Records: []services.VideoRecord{record("vid2", "Stocks")}},
			},
		}

		f := setupEngine(t, source, nil)

		result, err := f.engine.SyncCategory(ctx, models.CategorySaved, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Categories[0].Added != 1 {
			t.Errorf("expected 1 saved addition, got %d", result.Categories[0].Added)
		}
		if v := mustVideo(t, f, "vid2"); !v.IsSaved() {
			t.Error("expected vid2 to be saved")
		}
	})
}
