package tasks

import (
	"fmt"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/services"
)

// videoFromRecord maps a fetched record onto a video model. The custom
// description is left empty so an upsert can never displace a stored
// annotation.
func videoFromRecord(userID string, record services.VideoRecord) *models.Video {
	video := models.NewVideo(userID, record.VideoID)
	video.SetTitle(record.Title)
	video.SetYouTubeDescription(record.Description)
	video.SetThumbnailURL(record.ThumbnailURL)
	video.SetChannelID(record.ChannelID)
	video.SetChannelTitle(record.ChannelTitle)
	video.SetPublishedAt(record.PublishedAt)
	return video
}

// reconcileCategory diffs the fetched records against the stored flag
// set for one category.
//
// Present records are upserted with the flag raised, which merges
// additively with flags from other categories. Stored ids absent from
// the fetch get exactly this one flag cleared. Running the same fetch
// twice is a no-op.
func (e *LibraryEngine) reconcileCategory(c models.Category, records []services.VideoRecord) (added, removed int, err error) {
	existing, err := e.videos.ListCategoryIDs(e.user.ID(), c)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list %s videos: %w", c, err)
	}

	remote := make(map[string]bool, len(records))
	for _, record := range records {
		if remote[record.VideoID] {
			continue
		}
		remote[record.VideoID] = true

		video := videoFromRecord(e.user.ID(), record)
		video.SetFlag(c, true)

		if err := e.videos.Upsert(video); err != nil {
			return added, removed, fmt.Errorf("failed to upsert %s: %w", record.VideoID, err)
		}

		if !existing[record.VideoID] {
			added++
		}
	}

	var stale []string
	for videoID := range existing {
		if !remote[videoID] {
			stale = append(stale, videoID)
		}
	}

	if err := e.videos.ClearFlag(e.user.ID(), c, stale); err != nil {
		return added, removed, err
	}

	return added, len(stale), nil
}

// reconcileMembership diffs the fetched records against the stored
// membership of one playlist, mirroring [LibraryEngine.reconcileCategory]
// for the playlist reference instead of a category flag.
func (e *LibraryEngine) reconcileMembership(playlist *models.Playlist, records []services.VideoRecord) (added, removed int, err error) {
	existing, err := e.videos.ListPlaylistMemberIDs(e.user.ID(), playlist.PlaylistID())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list playlist members: %w", err)
	}

	remote := make(map[string]bool, len(records))
	for _, record := range records {
		if remote[record.VideoID] {
			continue
		}
		remote[record.VideoID] = true

		video := videoFromRecord(e.user.ID(), record)
		video.SetPlaylist(playlist.PlaylistID(), playlist.DisplayTitle())

		if err := e.videos.Upsert(video); err != nil {
			return added, removed, fmt.Errorf("failed to upsert %s: %w", record.VideoID, err)
		}

		if !existing[record.VideoID] {
			added++
		}
	}

	var stale []string
	for videoID := range existing {
		if !remote[videoID] {
			stale = append(stale, videoID)
		}
	}

	if err := e.videos.ClearPlaylist(e.user.ID(), playlist.PlaylistID(), stale); err != nil {
		return added, removed, err
	}

	return added, len(stale), nil
}
