package ui

import "github.com/desertthunder/ytboxd/internal/tasks"

// sectionsLoadedMsg carries the refreshed top-level browse entries.
type sectionsLoadedMsg struct {
	sections []sectionItem
}

// videosLoadedMsg carries the videos of the selected section.
type videosLoadedMsg struct {
	section sectionItem
	videos  []videoItem
}

// syncProgressMsg wraps a single progress update from a running sync.
type syncProgressMsg struct {
	update tasks.ProgressUpdate
}

// syncDoneMsg signals that a sync run finished.
type syncDoneMsg struct {
	result *tasks.SyncRunResult
	err    error
}

// errMsg reports a failed load.
type errMsg struct {
	err error
}
