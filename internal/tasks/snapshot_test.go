package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/services"
	"github.com/desertthunder/ytboxd/internal/shared"
	ytxtest "github.com/desertthunder/ytboxd/internal/testing"
)

// fakeStore is an in-memory SnapshotStore.
type fakeStore struct {
	folders map[string]string // name -> folder id
	names   map[string]string // folder id + "/" + name -> file id
	files   map[string][]byte // file id -> content
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		folders: make(map[string]string),
		names:   make(map[string]string),
		files:   make(map[string][]byte),
	}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *fakeStore) EnsureFolder(ctx context.Context, name string) (string, error) {
	if folderID, ok := s.folders[name]; ok {
		return folderID, nil
	}
	folderID := s.id("folder")
	s.folders[name] = folderID
	return folderID, nil
}

func (s *fakeStore) FindFile(ctx context.Context, folderID, name string) (string, error) {
	if fileID, ok := s.names[folderID+"/"+name]; ok {
		return fileID, nil
	}
	return "", fmt.Errorf("%w: %s", shared.ErrSnapshotMissing, name)
}

func (s *fakeStore) CreateFile(ctx context.Context, folderID, name, contentType string, content []byte) (string, error) {
	fileID := s.id("file")
	s.names[folderID+"/"+name] = fileID
	s.files[fileID] = content
	return fileID, nil
}

func (s *fakeStore) UpdateFile(ctx context.Context, fileID, contentType string, content []byte) error {
	if _, ok := s.files[fileID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotMissing, fileID)
	}
	s.files[fileID] = content
	return nil
}

func (s *fakeStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	content, ok := s.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotMissing, fileID)
	}
	return content, nil
}

// tagVideo syncs a liked video, tags it and optionally annotates it.
func tagVideo(t *testing.T, f *engineFixture, videoID, tagName, note string) {
	t.Helper()

	video, err := f.videos.GetByVideoID(f.userID, videoID)
	if err != nil {
		t.Fatalf("failed to load video: %v", err)
	}

	tag, _, err := f.tags.GetOrCreate(f.userID, tagName)
	if err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}

	if _, _, err := f.links.GetOrCreate(video.ID(), tag.ID()); err != nil {
		t.Fatalf("failed to link: %v", err)
	}

	if note != "" {
		if err := f.videos.SetCustomDescription(f.userID, videoID, note); err != nil {
			t.Fatalf("failed to annotate: %v", err)
		}
	}
}

func TestSnapshotTransfer(t *testing.T) {
	ctx := context.Background()

	liked := []services.VideoRecord{record("vid1", "Knife skills"), record("vid2", "Stocks")}

	t.Run("Export", func(t *testing.T) {
		t.Run("writes the tag layer to a new file", func(t *testing.T) {
			store := newFakeStore()
			f := setupEngine(t, &ytxtest.MockVideoSource{Liked: liked, Items: map[string]*services.FetchResult{}}, store)

			if _, err := f.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}
			tagVideo(t, f, "vid1", "cooking", "rewatch the sharpening part")
			tagVideo(t, f, "vid2", "cooking", "")

			result, err := f.engine.ExportSnapshot(ctx, nil)
			if err != nil {
				t.Fatalf("export failed: %v", err)
			}
			if result.Tags != 1 || result.Links != 2 {
				t.Errorf("expected 1 tag and 2 links, got %+v", result)
			}

			var snapshot models.Snapshot
			if err := json.Unmarshal(store.files[result.FileID], &snapshot); err != nil {
				t.Fatalf("snapshot is not valid JSON: %v", err)
			}
			if snapshot.User != "viewer@example.com" {
				t.Errorf("expected snapshot user, got %s", snapshot.User)
			}

			entry, ok := snapshot.Tags["cooking"]
			if !ok {
				t.Fatal("expected a 'cooking' tag in the snapshot")
			}
			if len(entry.Videos) != 2 {
				t.Fatalf("expected 2 snapshot videos, got %d", len(entry.Videos))
			}

			notes := map[string]string{}
			for _, item := range entry.Videos {
				notes[item.VideoID] = item.CustomDescription
			}
			if notes["vid1"] != "rewatch the sharpening part" {
				t.Errorf("expected annotation in snapshot, got %q", notes["vid1"])
			}
		})

		t.Run("replaces an existing file", func(t *testing.T) {
			store := newFakeStore()
			f := setupEngine(t, &ytxtest.MockVideoSource{Liked: liked, Items: map[string]*services.FetchResult{}}, store)

			if _, err := f.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}
			tagVideo(t, f, "vid1", "cooking", "")

			first, err := f.engine.ExportSnapshot(ctx, nil)
			if err != nil {
				t.Fatalf("first export failed: %v", err)
			}

			tagVideo(t, f, "vid2", "reference", "")

			second, err := f.engine.ExportSnapshot(ctx, nil)
			if err != nil {
				t.Fatalf("second export failed: %v", err)
			}
			if second.FileID != first.FileID {
				t.Errorf("expected the same file to be updated, got %s then %s", first.FileID, second.FileID)
			}
			if len(store.files) != 1 {
				t.Errorf("expected a single snapshot file, got %d", len(store.files))
			}
		})
	})

	t.Run("Import", func(t *testing.T) {
		// export from one library, import into a fresh one
		exportLibrary := func(t *testing.T) *fakeStore {
			t.Helper()
			store := newFakeStore()
			f := setupEngine(t, &ytxtest.MockVideoSource{Liked: liked, Items: map[string]*services.FetchResult{}}, store)

			if _, err := f.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}
			tagVideo(t, f, "vid1", "cooking", "rewatch the sharpening part")
			tagVideo(t, f, "vid2", "cooking", "")

			if _, err := f.engine.ExportSnapshot(ctx, nil); err != nil {
				t.Fatalf("export failed: %v", err)
			}
			return store
		}

		t.Run("recreates tags and links", func(t *testing.T) {
			store := exportLibrary(t)

			other := setupEngine(t, &ytxtest.MockVideoSource{Liked: liked, Items: map[string]*services.FetchResult{}}, store)
			if _, err := other.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}

			result, err := other.engine.ImportSnapshot(ctx, nil)
			if err != nil {
				t.Fatalf("import failed: %v", err)
			}
			if result.Tags != 1 || result.Links != 2 || result.Skipped != 0 {
				t.Errorf("expected 1 tag, 2 links, 0 skipped, got %+v", result)
			}

			tag, err := other.tags.GetByName(other.userID, "cooking")
			if err != nil {
				t.Fatalf("expected the tag to exist: %v", err)
			}
			linked, err := other.videos.List(other.userID, map[string]any{"tag_id": tag.ID()})
			if err != nil {
				t.Fatalf("failed to list tagged videos: %v", err)
			}
			if len(linked) != 2 {
				t.Errorf("expected 2 tagged videos, got %d", len(linked))
			}

			if v := mustVideo(t, other, "vid1"); v.CustomDescription() != "rewatch the sharpening part" {
				t.Errorf("expected annotation backfilled, got %q", v.CustomDescription())
			}
		})

		t.Run("is idempotent", func(t *testing.T) {
			store := exportLibrary(t)

			other := setupEngine(t, &ytxtest.MockVideoSource{Liked: liked, Items: map[string]*services.FetchResult{}}, store)
			if _, err := other.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}

			if _, err := other.engine.ImportSnapshot(ctx, nil); err != nil {
				t.Fatalf("first import failed: %v", err)
			}
			if _, err := other.engine.ImportSnapshot(ctx, nil); err != nil {
				t.Fatalf("second import failed: %v", err)
			}

			tags, err := other.tags.List(other.userID)
			if err != nil {
				t.Fatalf("failed to list tags: %v", err)
			}
			if len(tags) != 1 {
				t.Errorf("expected a single tag after two imports, got %d", len(tags))
			}
		})

		t.Run("skips videos missing from the library", func(t *testing.T) {
			store := exportLibrary(t)

			// the other library only ever synced vid1
			partial := []services.VideoRecord{record("vid1", "Knife skills")}
			other := setupEngine(t, &ytxtest.MockVideoSource{Liked: partial, Items: map[string]*services.FetchResult{}}, store)
			if _, err := other.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}

			result, err := other.engine.ImportSnapshot(ctx, nil)
			if err != nil {
				t.Fatalf("import failed: %v", err)
			}
			if result.Skipped != 1 {
				t.Errorf("expected 1 skipped video, got %d", result.Skipped)
			}
			if result.Links != 1 {
				t.Errorf("expected 1 link, got %d", result.Links)
			}
		})

		t.Run("never overwrites an existing annotation", func(t *testing.T) {
			store := exportLibrary(t)

			other := setupEngine(t, &ytxtest.MockVideoSource{Liked: liked, Items: map[string]*services.FetchResult{}}, store)
			if _, err := other.engine.SyncAll(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}
			if err := other.videos.SetCustomDescription(other.userID, "vid1", "my own note"); err != nil {
				t.Fatalf("failed to annotate: %v", err)
			}

			if _, err := other.engine.ImportSnapshot(ctx, nil); err != nil {
				t.Fatalf("import failed: %v", err)
			}

			if v := mustVideo(t, other, "vid1"); v.CustomDescription() != "my own note" {
				t.Errorf("expected local annotation to win, got %q", v.CustomDescription())
			}
		})

		t.Run("fails when the snapshot is missing", func(t *testing.T) {
			f := setupEngine(t, &ytxtest.MockVideoSource{Items: map[string]*services.FetchResult{}}, newFakeStore())

			if _, err := f.engine.ImportSnapshot(ctx, nil); !errors.Is(err, shared.ErrSnapshotMissing) {
				t.Errorf("expected ErrSnapshotMissing, got %v", err)
			}
		})

		t.Run("fails on a malformed snapshot", func(t *testing.T) {
			store := newFakeStore()
			folderID, _ := store.EnsureFolder(ctx, "YouTuBoxd Data")
			store.CreateFile(ctx, folderID, "youtuboxd_tags.json", "application/json", []byte("not json"))

			f := setupEngine(t, &ytxtest.MockVideoSource{Items: map[string]*services.FetchResult{}}, store)

			if _, err := f.engine.ImportSnapshot(ctx, nil); !errors.Is(err, shared.ErrSnapshotParse) {
				t.Errorf("expected ErrSnapshotParse, got %v", err)
			}
		})
	})
}
