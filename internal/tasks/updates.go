package tasks

import (
	"fmt"

	"github.com/desertthunder/ytboxd/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	SyncPlaylist
	SyncCategory
	ExportSnapshot
	ImportSnapshot
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case SyncPlaylist:
		return "sync_playlist"
	case SyncCategory:
		return "sync_category"
	case ExportSnapshot:
		return "export_snapshot"
	case ImportSnapshot:
		return "import_snapshot"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: "Fetching playlists from YouTube...",
	}
}

func syncPlaylistUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Syncing playlist: %s", step, total, title),
	}
}

func syncCategoryUpdate(step, total int, c models.Category) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncCategory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reconciling %s videos...", step, total, c),
	}
}

func categoryDoneUpdate(step, total int, result CategorySyncResult) ProgressUpdate {
	message := fmt.Sprintf("[%d/%d] %s: +%d -%d", step, total, result.Category, result.Added, result.Removed)
	if result.Skipped {
		message = fmt.Sprintf("[%d/%d] %s: skipped (%v)", step, total, result.Category, result.Err)
	}
	return ProgressUpdate{
		Phase:   SyncCategory,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    result,
	}
}

func exportSnapshotUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func importSnapshotUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportSnapshot,
		Step:    step,
		Total:   total,
		Message: message,
	}
}
