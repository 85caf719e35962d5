package models

import "fmt"

// Reserved identifiers YouTube uses for platform-special playlists.
const (
	WatchLaterPlaylistID  = "WL"
	LikedVideosPlaylistID = "LL"
	HistoryPlaylistID     = "HL"
)

// IsSystemPlaylist reports whether playlistID is one of the reserved
// platform playlists rather than a user-created one.
func IsSystemPlaylist(playlistID string) bool {
	switch playlistID {
	case WatchLaterPlaylistID, LikedVideosPlaylistID, HistoryPlaylistID:
		return true
	}
	return false
}

// Playlist caches the metadata of a user's YouTube playlist, identified
// by (user, playlist_id). Metadata is replaced wholesale on every sync.
type Playlist struct {
	base
	userID       string
	playlistID   string
	title        string
	description  string
	thumbnailURL string
	itemCount    int
	channelID    string
}

// NewPlaylist creates a new Playlist for the given user and remote playlist id.
func NewPlaylist(userID, playlistID string) *Playlist {
	return &Playlist{base: newBase(), userID: userID, playlistID: playlistID}
}

func (p *Playlist) UserID() string          { return p.userID }
func (p *Playlist) PlaylistID() string      { return p.playlistID }
func (p *Playlist) Title() string           { return p.title }
func (p *Playlist) SetTitle(s string)       { p.title = s }
func (p *Playlist) Description() string     { return p.description }
func (p *Playlist) SetDescription(s string) { p.description = s }
func (p *Playlist) ThumbnailURL() string    { return p.thumbnailURL }
func (p *Playlist) SetThumbnailURL(s string) {
	p.thumbnailURL = s
}
func (p *Playlist) ItemCount() int         { return p.itemCount }
func (p *Playlist) SetItemCount(n int)     { p.itemCount = n }
func (p *Playlist) ChannelID() string      { return p.channelID }
func (p *Playlist) SetChannelID(s string)  { p.channelID = s }

// DisplayTitle returns the playlist title, substituting human-readable
// names for the platform-special playlists whatever the API reported.
func (p *Playlist) DisplayTitle() string {
	switch p.playlistID {
	case WatchLaterPlaylistID:
		return "Watch Later"
	case LikedVideosPlaylistID:
		return "Liked Videos"
	default:
		return p.title
	}
}

// Validate checks that the playlist carries its composite key.
func (p *Playlist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("playlist user is required")
	}
	if p.playlistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	return nil
}
