package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/shared"
	"github.com/desertthunder/ytboxd/internal/tasks"
)

// LibraryHandler serves the JSON API over one user's library.
type LibraryHandler struct {
	engine    tasks.SyncEngine
	videos    *repositories.VideoRepository
	playlists *repositories.PlaylistRepository
	tags      *repositories.TagRepository
	videoTags *repositories.VideoTagRepository
	user      *models.User
	logger    *log.Logger
}

// NewLibraryHandler creates a LibraryHandler from its dependencies.
func NewLibraryHandler(
	engine tasks.SyncEngine,
	videos *repositories.VideoRepository,
	playlists *repositories.PlaylistRepository,
	tags *repositories.TagRepository,
	videoTags *repositories.VideoTagRepository,
	user *models.User,
	logger *log.Logger,
) *LibraryHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LibraryHandler{
		engine:    engine,
		videos:    videos,
		playlists: playlists,
		tags:      tags,
		videoTags: videoTags,
		user:      user,
		logger:    logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LibraryHandler) Routes() []string {
	return []string{
		"POST /api/sync",
		"GET /api/videos",
		"GET /api/playlists",
		"GET /api/tags",
		"POST /api/videos/{video_id}/tags",
		"DELETE /api/videos/{video_id}/tags/{name}",
		"PATCH /api/videos/{video_id}/notes",
		"POST /api/snapshot/save",
		"POST /api/snapshot/load",
	}
}

// ServeHTTP dispatches to the matching endpoint.
func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/sync":
		h.handleSync(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/videos":
		h.handleListVideos(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/playlists":
		h.handleListPlaylists(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/tags":
		h.handleListTags(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/snapshot/save":
		h.handleSnapshotSave(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/snapshot/load":
		h.handleSnapshotLoad(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/tags"):
		h.handleAddTag(w, r)
	case r.Method == http.MethodDelete:
		h.handleRemoveTag(w, r)
	case r.Method == http.MethodPatch:
		h.handleSetNote(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type videoPayload struct {
	VideoID           string    `json:"video_id"`
	Title             string    `json:"title"`
	ChannelTitle      string    `json:"channel_title"`
	ThumbnailURL      string    `json:"thumbnail_url"`
	CustomDescription string    `json:"custom_description"`
	PlaylistID        string    `json:"playlist_id,omitempty"`
	PlaylistName      string    `json:"playlist_name,omitempty"`
	Liked             bool      `json:"liked"`
	Saved             bool      `json:"saved"`
	PublishedAt       time.Time `json:"published_at"`
}

func toVideoPayload(video *models.Video) videoPayload {
	return videoPayload{
		VideoID:           video.VideoID(),
		Title:             video.Title(),
		ChannelTitle:      video.ChannelTitle(),
		ThumbnailURL:      video.ThumbnailURL(),
		CustomDescription: video.CustomDescription(),
		PlaylistID:        video.PlaylistID(),
		PlaylistName:      video.PlaylistName(),
		Liked:             video.IsLiked(),
		Saved:             video.IsSaved(),
		PublishedAt:       video.PublishedAt(),
	}
}

type categoryPayload struct {
	Category   string `json:"category"`
	Fetched    int    `json:"fetched"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	Restricted bool   `json:"restricted"`
	Skipped    bool   `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

type syncPayload struct {
	Playlists  []categoryPayload `json:"playlists"`
	Categories []categoryPayload `json:"categories"`
	Error      string            `json:"error,omitempty"`
}

func (h *LibraryHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SyncType string `json:"sync_type"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var result *tasks.SyncRunResult
	var err error
	switch body.SyncType {
	case "", "all":
		result, err = h.engine.SyncAll(r.Context(), nil)
	default:
		category, parseErr := models.ParseCategory(body.SyncType)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		result, err = h.engine.SyncCategory(r.Context(), category, nil)
	}
	if err != nil {
		h.logger.Error("sync failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	payload := syncPayload{}
	if result.PlaylistsErr != nil {
		payload.Error = result.PlaylistsErr.Error()
	}
	for _, pl := range result.Playlists {
		entry := categoryPayload{
			Category: pl.Title,
			Fetched:  pl.Fetched,
			Added:    pl.Added,
			Removed:  pl.Removed,
			Skipped:  pl.Skipped,
		}
		if pl.Err != nil {
			entry.Error = pl.Err.Error()
		}
		payload.Playlists = append(payload.Playlists, entry)
	}
	for _, c := range result.Categories {
		entry := categoryPayload{
			Category:   c.Category.String(),
			Fetched:    c.Fetched,
			Added:      c.Added,
			Removed:    c.Removed,
			Restricted: c.Restricted,
			Skipped:    c.Skipped,
		}
		if c.Err != nil {
			entry.Error = c.Err.Error()
		}
		payload.Categories = append(payload.Categories, entry)
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *LibraryHandler) handleListVideos(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}

	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		criteria["category"] = category
	}

	if playlistID := r.URL.Query().Get("playlist"); playlistID != "" {
		criteria["playlist_id"] = playlistID
	}

	if tagName := r.URL.Query().Get("tag"); tagName != "" {
		tag, err := h.tags.GetByName(h.user.ID(), tagName)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		criteria["tag_id"] = tag.ID()
	}

	videos, err := h.videos.List(h.user.ID(), criteria)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := make([]videoPayload, 0, len(videos))
	for _, video := range videos {
		payload = append(payload, toVideoPayload(video))
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *LibraryHandler) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.List(h.user.ID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type playlistPayload struct {
		PlaylistID string `json:"playlist_id"`
		Title      string `json:"title"`
		ItemCount  int    `json:"item_count"`
	}

	payload := make([]playlistPayload, 0, len(playlists))
	for _, pl := range playlists {
		payload = append(payload, playlistPayload{
			PlaylistID: pl.PlaylistID(),
			Title:      pl.DisplayTitle(),
			ItemCount:  pl.ItemCount(),
		})
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *LibraryHandler) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(h.user.ID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type tagPayload struct {
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	payload := make([]tagPayload, 0, len(tags))
	for _, tag := range tags {
		payload = append(payload, tagPayload{Name: tag.Name(), CreatedAt: tag.CreatedAt()})
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *LibraryHandler) handleAddTag(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "a tag name is required")
		return
	}

	video, err := h.videos.GetByVideoID(h.user.ID(), videoID)
	if errors.Is(err, shared.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tag, _, err := h.tags.GetOrCreate(h.user.ID(), body.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, _, err := h.videoTags.GetOrCreate(video.ID(), tag.ID()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"video_id": videoID, "tag": tag.Name()})
}

func (h *LibraryHandler) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")
	name := r.PathValue("name")

	video, err := h.videos.GetByVideoID(h.user.ID(), videoID)
	if errors.Is(err, shared.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tag, err := h.tags.GetByName(h.user.ID(), name)
	if errors.Is(err, shared.ErrTagNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.videoTags.Delete(video.ID(), tag.ID()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LibraryHandler) handleSetNote(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.videos.SetCustomDescription(h.user.ID(), videoID, body.Text)
	if errors.Is(err, shared.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"video_id": videoID, "custom_description": body.Text})
}

func (h *LibraryHandler) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.ExportSnapshot(r.Context(), nil)
	if err != nil {
		h.logger.Error("snapshot export failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LibraryHandler) handleSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.ImportSnapshot(r.Context(), nil)
	if errors.Is(err, shared.ErrSnapshotMissing) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("snapshot import failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
