// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the synced library:
//  1. [SectionListView] : Browse categories, playlists and tags
//  2. [VideoListView] : Browse the videos of the selected section
//  3. [SyncView] : Monitor real-time progress of a sync run
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the LibraryEngine, providing non-blocking status reporting during syncs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
