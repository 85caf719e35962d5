package models

import (
	"fmt"
	"time"
)

// Video represents a YouTube video stored for a user, identified by
// (user, video_id).
//
// Remote-sourced fields (title, youtube description, thumbnail, channel,
// publish time) are overwritten wholesale on every sync. The custom
// description belongs to the user and is never touched by a sync.
type Video struct {
	base
	userID             string
	videoID            string
	title              string
	youtubeDescription string
	customDescription  string
	thumbnailURL       string
	channelID          string
	channelTitle       string
	publishedAt        time.Time
	liked              bool
	saved              bool
	history            bool
	playlistID         string
	playlistName       string
}

// NewVideo creates a new Video for the given user and remote video id.
func NewVideo(userID, videoID string) *Video {
	return &Video{base: newBase(), userID: userID, videoID: videoID}
}

func (v *Video) UserID() string             { return v.userID }
func (v *Video) VideoID() string            { return v.videoID }
func (v *Video) Title() string              { return v.title }
func (v *Video) SetTitle(s string)          { v.title = s }
func (v *Video) YouTubeDescription() string { return v.youtubeDescription }
func (v *Video) SetYouTubeDescription(s string) {
	v.youtubeDescription = s
}
func (v *Video) CustomDescription() string       { return v.customDescription }
func (v *Video) SetCustomDescription(s string)   { v.customDescription = s }
func (v *Video) ThumbnailURL() string            { return v.thumbnailURL }
func (v *Video) SetThumbnailURL(s string)        { v.thumbnailURL = s }
func (v *Video) ChannelID() string               { return v.channelID }
func (v *Video) SetChannelID(s string)           { v.channelID = s }
func (v *Video) ChannelTitle() string            { return v.channelTitle }
func (v *Video) SetChannelTitle(s string)        { v.channelTitle = s }
func (v *Video) PublishedAt() time.Time          { return v.publishedAt }
func (v *Video) SetPublishedAt(t time.Time)      { v.publishedAt = t }
func (v *Video) PlaylistID() string              { return v.playlistID }
func (v *Video) PlaylistName() string            { return v.playlistName }
func (v *Video) SetPlaylist(id, name string) {
	v.playlistID = id
	v.playlistName = name
}

// Flag returns the boolean flag for the given category.
func (v *Video) Flag(c Category) bool {
	switch c {
	case CategoryLiked:
		return v.liked
	case CategorySaved:
		return v.saved
	case CategoryHistory:
		return v.history
	default:
		return false
	}
}

// SetFlag sets the flag for exactly one category, leaving the others alone.
func (v *Video) SetFlag(c Category, value bool) {
	switch c {
	case CategoryLiked:
		v.liked = value
	case CategorySaved:
		v.saved = value
	case CategoryHistory:
		v.history = value
	}
}

func (v *Video) IsLiked() bool   { return v.liked }
func (v *Video) IsSaved() bool   { return v.saved }
func (v *Video) IsHistory() bool { return v.history }

// Validate checks that the video carries its composite key.
func (v *Video) Validate() error {
	if v.userID == "" {
		return fmt.Errorf("video user is required")
	}
	if v.videoID == "" {
		return fmt.Errorf("video id is required")
	}
	return nil
}
