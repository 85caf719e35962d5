package ui

import (
	"fmt"

	"github.com/desertthunder/ytboxd/internal/models"
)

// sectionKind discriminates what a browse section resolves to.
type sectionKind int

const (
	sectionCategory sectionKind = iota
	sectionPlaylist
	sectionTag
)

// sectionItem is a browsable entry on the top-level list: a category,
// a synced playlist or a tag. It carries the listing criteria used to
// load its videos.
type sectionItem struct {
	kind     sectionKind
	label    string
	count    int
	criteria map[string]any
}

func (s sectionItem) Title() string { return s.label }

func (s sectionItem) Description() string {
	switch s.kind {
	case sectionPlaylist:
		return fmt.Sprintf("playlist · %d videos", s.count)
	case sectionTag:
		return "tag"
	default:
		return "category"
	}
}

func (s sectionItem) FilterValue() string { return s.label }

func categorySection(c models.Category, label string) sectionItem {
	return sectionItem{
		kind:     sectionCategory,
		label:    label,
		criteria: map[string]any{"category": c},
	}
}

func playlistSection(p *models.Playlist) sectionItem {
	return sectionItem{
		kind:     sectionPlaylist,
		label:    p.DisplayTitle(),
		count:    p.ItemCount(),
		criteria: map[string]any{"playlist_id": p.PlaylistID()},
	}
}

func tagSection(t *models.Tag) sectionItem {
	return sectionItem{
		kind:     sectionTag,
		label:    "#" + t.Name(),
		criteria: map[string]any{"tag_id": t.ID()},
	}
}

// videoItem wraps a video for the bubbles list.
type videoItem struct {
	video *models.Video
}

func (v videoItem) Title() string { return v.video.Title() }

func (v videoItem) Description() string {
	desc := v.video.ChannelTitle()
	if note := v.video.CustomDescription(); note != "" {
		desc = fmt.Sprintf("%s · %s", desc, note)
	}
	return desc
}

func (v videoItem) FilterValue() string {
	return v.video.Title() + " " + v.video.ChannelTitle()
}
