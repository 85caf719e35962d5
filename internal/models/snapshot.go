package models

import "time"

// Snapshot is the portable JSON document holding a user's tag layer.
// One snapshot file exists per user in cloud storage; exporting replaces
// it wholesale.
type Snapshot struct {
	User       string                 `json:"user"`
	ExportedAt time.Time              `json:"exported_at"`
	Tags       map[string]SnapshotTag `json:"tags"`
}

// SnapshotTag is one tag entry in a Snapshot, with its tagged videos
// ordered newest-published first, as the video listing returns them.
type SnapshotTag struct {
	ID        string          `json:"id"`
	CreatedAt *time.Time      `json:"created_at"`
	Videos    []SnapshotVideo `json:"videos"`
}

// SnapshotVideo carries enough of a tagged video to restore the link and
// backfill the user's note. The video itself is matched by video_id on
// import; videos not yet synced locally are skipped.
type SnapshotVideo struct {
	VideoID           string     `json:"video_id"`
	Title             string     `json:"title"`
	ThumbnailURL      string     `json:"thumbnail_url"`
	CustomDescription string     `json:"custom_description"`
	AddedAt           *time.Time `json:"added_at"`
}
