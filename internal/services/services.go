// package services defines clients for the external HTTP collaborators:
// the YouTube Data API, the Google OAuth token endpoint, and Google Drive.
package services

import (
	"context"
	"time"
)

// Defaults substituted for fields the remote API omits.
const (
	UntitledVideo    = "Untitled Video"
	UntitledPlaylist = "Untitled Playlist"
	UnknownChannel   = "Unknown Channel"
)

// TokenProvider gates remote calls on a valid bearer credential.
//
// EnsureValid reports false instead of returning an error: callers must
// treat false as "abort the remote operation."
type TokenProvider interface {
	// EnsureValid ensures a non-expired access token exists, refreshing
	// it when it is about to expire. Returns false if no credential is
	// stored or the refresh fails.
	EnsureValid(ctx context.Context) bool

	// AccessToken returns the current bearer token. Only meaningful
	// after EnsureValid has returned true.
	AccessToken() string
}

// VideoSource is the remote video-platform contract consumed by the sync
// engine. Implementations drain pagination before returning.
type VideoSource interface {
	// Playlists lists the user's playlists.
	Playlists(ctx context.Context) ([]PlaylistRecord, error)

	// PlaylistItems lists the videos in one playlist. A permission-denied
	// response on the first page yields a Restricted result rather than
	// an error: platform-special playlists such as Watch Later are often
	// walled off by policy, and that is an authoritative empty, not a
	// fetch failure.
	PlaylistItems(ctx context.Context, playlistID string) (*FetchResult, error)

	// LikedVideos lists the videos the user has rated "like".
	LikedVideos(ctx context.Context) ([]VideoRecord, error)
}

// FetchResult is the outcome of a playlist-items fetch.
type FetchResult struct {
	Records    []VideoRecord
	Restricted bool // true when the platform denied access by policy
}

// VideoRecord is one video decoded from a remote listing, with omitted
// fields replaced by documented defaults.
type VideoRecord struct {
	VideoID      string
	Title        string
	Description  string
	ThumbnailURL string
	ChannelID    string
	ChannelTitle string
	PublishedAt  time.Time
}

// PlaylistRecord is one playlist decoded from a remote listing.
type PlaylistRecord struct {
	PlaylistID   string
	Title        string
	Description  string
	ThumbnailURL string
	ItemCount    int
	ChannelID    string
}
