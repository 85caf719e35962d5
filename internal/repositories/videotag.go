package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// VideoTagRepository persists the many-to-many links between videos and
// tags, keyed by (video, tag).
type VideoTagRepository struct {
	db *sql.DB
}

// NewVideoTagRepository creates a new [VideoTagRepository] with the given database connection
func NewVideoTagRepository(db *sql.DB) *VideoTagRepository {
	return &VideoTagRepository{db: db}
}

// GetOrCreate returns the link between a video row and a tag row,
// creating it when absent. Races on the (video, tag) key resolve to the
// surviving row, like [TagRepository.GetOrCreate]. The second return
// value reports whether this call created the link.
func (r *VideoTagRepository) GetOrCreate(videoID, tagID string) (*models.VideoTag, bool, error) {
	if link, err := r.get(videoID, tagID); err == nil {
		return link, false, nil
	}

	link := models.NewVideoTag(videoID, tagID)
	link.SetID(shared.GenerateID())

	if err := link.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	query := "INSERT INTO video_tags (id, video_id, tag_id, created_at) VALUES (?, ?, ?, ?)"

	_, err := r.db.Exec(query, link.ID(), videoID, tagID, link.CreatedAt())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			existing, getErr := r.get(videoID, tagID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load link after race: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert video tag: %w", err)
	}

	return link, true, nil
}

func (r *VideoTagRepository) get(videoID, tagID string) (*models.VideoTag, error) {
	query := "SELECT id, video_id, tag_id, created_at FROM video_tags WHERE video_id = ? AND tag_id = ?"

	var (
		id        string
		vID       string
		tID       string
		createdAt time.Time
	)

	err := r.db.QueryRow(query, videoID, tagID).Scan(&id, &vID, &tID, &createdAt)
	if err != nil {
		return nil, err
	}

	link := models.NewVideoTag(vID, tID)
	link.SetID(id)
	link.SetCreatedAt(createdAt)

	return link, nil
}

// ListByTag retrieves all links for a tag in creation order.
func (r *VideoTagRepository) ListByTag(tagID string) ([]*models.VideoTag, error) {
	query := "SELECT id, video_id, tag_id, created_at FROM video_tags WHERE tag_id = ? ORDER BY created_at ASC"

	rows, err := r.db.Query(query, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to query video tags: %w", err)
	}
	defer rows.Close()

	var links []*models.VideoTag
	for rows.Next() {
		var (
			id        string
			vID       string
			tID       string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &vID, &tID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan video tag: %w", err)
		}

		link := models.NewVideoTag(vID, tID)
		link.SetID(id)
		link.SetCreatedAt(createdAt)
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return links, nil
}

// Delete removes the link between a video row and a tag row.
// Deleting a link that does not exist is not an error.
func (r *VideoTagRepository) Delete(videoID, tagID string) error {
	_, err := r.db.Exec("DELETE FROM video_tags WHERE video_id = ? AND tag_id = ?", videoID, tagID)
	if err != nil {
		return fmt.Errorf("failed to delete video tag: %w", err)
	}
	return nil
}

// CountForVideo returns how many tags are attached to a video row.
func (r *VideoTagRepository) CountForVideo(videoID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM video_tags WHERE video_id = ?", videoID).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count video tags: %w", err)
	}
	return count, nil
}
