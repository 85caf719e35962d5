// Package tasks orchestrates library syncs and snapshot transfers with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines three operations:
//
//  1. [SyncEngine.SyncAll] : Full YouTube → local library sync
//     - Mirrors the user's playlists and their membership
//     - Reconciles liked videos and the watch-later list by set difference
//     - Makes a best-effort pass over watch history
//     - Skips a category cleanly when its fetch fails outright
//
//  2. [SyncEngine.ExportSnapshot] : Tag layer → Drive
//     - Serializes tags, tag links and annotations to a JSON document
//     - Creates or replaces the snapshot file in the app's Drive folder
//
//  3. [SyncEngine.ImportSnapshot] : Drive → tag layer
//     - Downloads and parses the snapshot document
//     - Recreates tags and tag links, skipping videos not in the library
//     - Backfills annotations only where the local note is empty
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters and messages
// for CLI or UI rendering. Updates use select with default to prevent
// blocking.
//
// # Implementation
//
// [LibraryEngine] implements [SyncEngine] with dependencies on:
//   - [services.VideoSource] : YouTube Data API client
//   - [SnapshotStore] : Drive client for snapshot documents
//   - the repository layer for local persistence
package tasks
