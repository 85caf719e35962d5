package models

import (
	"fmt"
	"time"
)

// Tag is a user-defined label, identified by (user, name).
// Tags are a purely local layer: syncs never write them.
type Tag struct {
	base
	sequence int
	userID   string
	name     string
}

// NewTag creates a new Tag with the given sequence, user and name.
func NewTag(sequence int, userID, name string) *Tag {
	return &Tag{base: newBase(), sequence: sequence, userID: userID, name: name}
}

func (t *Tag) Sequence() int  { return t.sequence }
func (t *Tag) UserID() string { return t.userID }
func (t *Tag) Name() string   { return t.name }

// Validate checks that the tag carries its composite key.
func (t *Tag) Validate() error {
	if t.userID == "" {
		return fmt.Errorf("tag user is required")
	}
	if t.name == "" {
		return fmt.Errorf("tag name is required")
	}
	return nil
}

// VideoTag links a Video to a Tag, identified by (video, tag).
// Its creation time is reported as "added at" in snapshot exports.
type VideoTag struct {
	id        string
	videoID   string
	tagID     string
	createdAt time.Time
}

// NewVideoTag creates a link between the given video and tag rows.
func NewVideoTag(videoID, tagID string) *VideoTag {
	return &VideoTag{videoID: videoID, tagID: tagID, createdAt: time.Now()}
}

func (vt *VideoTag) ID() string               { return vt.id }
func (vt *VideoTag) SetID(id string)          { vt.id = id }
func (vt *VideoTag) VideoID() string          { return vt.videoID }
func (vt *VideoTag) TagID() string            { return vt.tagID }
func (vt *VideoTag) CreatedAt() time.Time     { return vt.createdAt }
func (vt *VideoTag) SetCreatedAt(t time.Time) { vt.createdAt = t }

// Validate checks that the link references both sides.
func (vt *VideoTag) Validate() error {
	if vt.videoID == "" || vt.tagID == "" {
		return fmt.Errorf("video tag requires both video and tag")
	}
	return nil
}
