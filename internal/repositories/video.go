package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// VideoRepository persists [models.Video] rows keyed by (user, video_id).
//
// Syncs only ever call Upsert, the id-set listings and the scoped
// clears; the annotation setters serve the tagging layer and snapshot
// import.
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new [VideoRepository] with the given database connection
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// categoryColumn maps a category to its flag column. The input is a
// closed enum, so the column name never comes from user input.
func categoryColumn(c models.Category) string {
	switch c {
	case models.CategorySaved:
		return "is_saved"
	case models.CategoryHistory:
		return "is_history"
	default:
		return "is_liked"
	}
}

// Upsert inserts or updates a video row keyed by (user_id, video_id).
//
// Remote-sourced fields are overwritten wholesale. The user's custom
// description survives whenever the stored value is non-empty. Category
// flags merge additively: an upsert can set a flag but never clears one,
// so passes for different categories compose in any order. Playlist
// membership is replaced only when the incoming video carries one.
func (r *VideoRepository) Upsert(video *models.Video) error {
	if err := video.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if video.ID() == "" {
		video.SetID(shared.GenerateID())
	}
	video.SetUpdatedAt(time.Now())

	query := `
		INSERT INTO videos (
			id, user_id, video_id, title, youtube_description, custom_description,
			thumbnail_url, channel_id, channel_title, published_at,
			is_liked, is_saved, is_history, playlist_id, playlist_name,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, video_id) DO UPDATE SET
			title = excluded.title,
			youtube_description = excluded.youtube_description,
			custom_description = CASE
				WHEN videos.custom_description IS NOT NULL AND videos.custom_description != ''
				THEN videos.custom_description
				ELSE excluded.custom_description
			END,
			thumbnail_url = excluded.thumbnail_url,
			channel_id = excluded.channel_id,
			channel_title = excluded.channel_title,
			published_at = excluded.published_at,
			is_liked = MAX(videos.is_liked, excluded.is_liked),
			is_saved = MAX(videos.is_saved, excluded.is_saved),
			is_history = MAX(videos.is_history, excluded.is_history),
			playlist_id = CASE
				WHEN excluded.playlist_id IS NOT NULL AND excluded.playlist_id != ''
				THEN excluded.playlist_id
				ELSE videos.playlist_id
			END,
			playlist_name = CASE
				WHEN excluded.playlist_id IS NOT NULL AND excluded.playlist_id != ''
				THEN excluded.playlist_name
				ELSE videos.playlist_name
			END,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		video.ID(),
		video.UserID(),
		video.VideoID(),
		video.Title(),
		video.YouTubeDescription(),
		video.CustomDescription(),
		video.ThumbnailURL(),
		video.ChannelID(),
		video.ChannelTitle(),
		video.PublishedAt(),
		video.IsLiked(),
		video.IsSaved(),
		video.IsHistory(),
		video.PlaylistID(),
		video.PlaylistName(),
		video.CreatedAt(),
		video.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

const videoColumns = `
	id, user_id, video_id, title, youtube_description, custom_description,
	thumbnail_url, channel_id, channel_title, published_at,
	is_liked, is_saved, is_history, playlist_id, playlist_name,
	created_at, updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*models.Video, error) {
	var (
		id           string
		userID       string
		videoID      string
		title        string
		ytDesc       sql.NullString
		customDesc   sql.NullString
		thumbnail    sql.NullString
		channelID    sql.NullString
		channelTitle sql.NullString
		publishedAt  time.Time
		liked        bool
		saved        bool
		history      bool
		playlistID   sql.NullString
		playlistName sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &userID, &videoID, &title, &ytDesc, &customDesc,
		&thumbnail, &channelID, &channelTitle, &publishedAt,
		&liked, &saved, &history, &playlistID, &playlistName,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	video := models.NewVideo(userID, videoID)
	video.SetID(id)
	video.SetTitle(title)
	video.SetYouTubeDescription(ytDesc.String)
	video.SetCustomDescription(customDesc.String)
	video.SetThumbnailURL(thumbnail.String)
	video.SetChannelID(channelID.String)
	video.SetChannelTitle(channelTitle.String)
	video.SetPublishedAt(publishedAt)
	video.SetFlag(models.CategoryLiked, liked)
	video.SetFlag(models.CategorySaved, saved)
	video.SetFlag(models.CategoryHistory, history)
	video.SetPlaylist(playlistID.String, playlistName.String)
	video.SetCreatedAt(createdAt)
	video.SetUpdatedAt(updatedAt)

	return video, nil
}

// GetByVideoID retrieves one video by its (user, remote id) key.
func (r *VideoRepository) GetByVideoID(userID, videoID string) (*models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos WHERE user_id = ? AND video_id = ?"

	video, err := scanVideo(r.db.QueryRow(query, userID, videoID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video: %w", err)
	}

	return video, nil
}

// ListCategoryIDs returns the set of remote video ids currently flagged
// in the given category for a user. This set is the local side of the
// reconciliation diff.
func (r *VideoRepository) ListCategoryIDs(userID string, c models.Category) (map[string]bool, error) {
	query := fmt.Sprintf("SELECT video_id FROM videos WHERE user_id = ? AND %s = 1", categoryColumn(c))

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s videos: %w", c, err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids[videoID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// ClearFlag flips exactly one category flag to false for the given remote
// video ids. All other columns, including the other category flags and
// the playlist reference, are untouched.
func (r *VideoRepository) ClearFlag(userID string, c models.Category, videoIDs []string) error {
	if len(videoIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(videoIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(
		"UPDATE videos SET %s = 0, updated_at = ? WHERE user_id = ? AND video_id IN (%s)",
		categoryColumn(c), placeholders,
	)

	args := make([]any, 0, len(videoIDs)+2)
	args = append(args, time.Now(), userID)
	for _, id := range videoIDs {
		args = append(args, id)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to clear %s flag: %w", c, err)
	}

	return nil
}

// ListPlaylistMemberIDs returns the set of remote video ids currently
// recorded as members of the given playlist.
func (r *VideoRepository) ListPlaylistMemberIDs(userID, playlistID string) (map[string]bool, error) {
	query := "SELECT video_id FROM videos WHERE user_id = ? AND playlist_id = ?"

	rows, err := r.db.Query(query, userID, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist members: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids[videoID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// ClearPlaylist removes the playlist reference from the given remote
// video ids, scoped to rows still pointing at that playlist. Category
// flags and annotations are untouched.
func (r *VideoRepository) ClearPlaylist(userID, playlistID string, videoIDs []string) error {
	if len(videoIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(videoIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(
		"UPDATE videos SET playlist_id = '', playlist_name = '', updated_at = ? WHERE user_id = ? AND playlist_id = ? AND video_id IN (%s)",
		placeholders,
	)

	args := make([]any, 0, len(videoIDs)+3)
	args = append(args, time.Now(), userID, playlistID)
	for _, id := range videoIDs {
		args = append(args, id)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to clear playlist reference: %w", err)
	}

	return nil
}

// List retrieves videos matching the given criteria, newest first.
//
// Supported criteria: "category" ([models.Category]), "playlist_id"
// (string), "tag_id" (string).
func (r *VideoRepository) List(userID string, criteria map[string]any) ([]*models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos WHERE user_id = ?"
	args := []any{userID}

	if c, ok := criteria["category"].(models.Category); ok {
		query += fmt.Sprintf(" AND %s = 1", categoryColumn(c))
	}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if tagID, ok := criteria["tag_id"].(string); ok && tagID != "" {
		query += " AND id IN (SELECT video_id FROM video_tags WHERE tag_id = ?)"
		args = append(args, tagID)
	}

	query += " ORDER BY published_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return videos, nil
}

// SetCustomDescription overwrites the user's note on a video.
func (r *VideoRepository) SetCustomDescription(userID, videoID, text string) error {
	query := `
		UPDATE videos
		SET custom_description = ?, updated_at = ?
		WHERE user_id = ? AND video_id = ?
	`

	result, err := r.db.Exec(query, text, time.Now(), userID, videoID)
	if err != nil {
		return fmt.Errorf("failed to update custom description: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrVideoNotFound, videoID)
	}

	return nil
}

// BackfillCustomDescription sets the user's note only when the stored
// note is empty. Used by snapshot import, which must never overwrite.
func (r *VideoRepository) BackfillCustomDescription(userID, videoID, text string) error {
	if text == "" {
		return nil
	}

	query := `
		UPDATE videos
		SET custom_description = ?, updated_at = ?
		WHERE user_id = ? AND video_id = ?
		AND (custom_description IS NULL OR custom_description = '')
	`

	if _, err := r.db.Exec(query, text, time.Now(), userID, videoID); err != nil {
		return fmt.Errorf("failed to backfill custom description: %w", err)
	}

	return nil
}
