package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// PlaylistRepository persists [models.Playlist] rows keyed by (user, playlist_id).
//
// Playlist metadata is cached wholesale: every sync pass replaces it.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new [PlaylistRepository] with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts or replaces the cached metadata for a playlist.
func (r *PlaylistRepository) Upsert(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if playlist.ID() == "" {
		playlist.SetID(shared.GenerateID())
	}
	playlist.SetUpdatedAt(time.Now())

	query := `
		INSERT INTO playlists (
			id, user_id, playlist_id, title, description, thumbnail_url,
			item_count, channel_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, playlist_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			thumbnail_url = excluded.thumbnail_url,
			item_count = excluded.item_count,
			channel_id = excluded.channel_id,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		playlist.ID(),
		playlist.UserID(),
		playlist.PlaylistID(),
		playlist.Title(),
		playlist.Description(),
		playlist.ThumbnailURL(),
		playlist.ItemCount(),
		playlist.ChannelID(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}

	return nil
}

func scanPlaylist(row scanner) (*models.Playlist, error) {
	var (
		id          string
		userID      string
		playlistID  string
		title       string
		description sql.NullString
		thumbnail   sql.NullString
		itemCount   int
		channelID   sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &userID, &playlistID, &title, &description,
		&thumbnail, &itemCount, &channelID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	playlist := models.NewPlaylist(userID, playlistID)
	playlist.SetID(id)
	playlist.SetTitle(title)
	playlist.SetDescription(description.String)
	playlist.SetThumbnailURL(thumbnail.String)
	playlist.SetItemCount(itemCount)
	playlist.SetChannelID(channelID.String)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)

	return playlist, nil
}

const playlistColumns = `
	id, user_id, playlist_id, title, description, thumbnail_url,
	item_count, channel_id, created_at, updated_at
`

// GetByPlaylistID retrieves one playlist by its (user, remote id) key.
func (r *PlaylistRepository) GetByPlaylistID(userID, playlistID string) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE user_id = ? AND playlist_id = ?"

	playlist, err := scanPlaylist(r.db.QueryRow(query, userID, playlistID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	return playlist, nil
}

// List retrieves all playlists for a user ordered by title.
func (r *PlaylistRepository) List(userID string) ([]*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE user_id = ? ORDER BY title ASC"

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}
