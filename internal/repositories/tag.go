package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// TagRepository persists [models.Tag] rows keyed by (user, name).
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new [TagRepository] with the given database connection
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetOrCreate returns the tag with the given name, creating it when it
// does not exist yet. A concurrent create racing on the same (user, name)
// key loses to the UNIQUE constraint and falls through to the read,
// so both callers see the surviving row. The second return value reports
// whether this call created the tag.
func (r *TagRepository) GetOrCreate(userID, name string) (*models.Tag, bool, error) {
	if tag, err := r.GetByName(userID, name); err == nil {
		return tag, false, nil
	}

	sequence, err := NextSequence(r.db, "tags")
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate sequence: %w", err)
	}

	tag := models.NewTag(sequence, userID, name)
	tag.SetID(shared.GenerateID())

	if err := tag.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	query := "INSERT INTO tags (id, sequence, user_id, name, created_at) VALUES (?, ?, ?, ?, ?)"

	_, err = r.db.Exec(query, tag.ID(), sequence, userID, name, tag.CreatedAt())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			existing, getErr := r.GetByName(userID, name)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load tag after race: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert tag: %w", err)
	}

	return tag, true, nil
}

func scanTag(row scanner) (*models.Tag, error) {
	var (
		id        string
		sequence  int
		userID    string
		name      string
		createdAt time.Time
	)

	if err := row.Scan(&id, &sequence, &userID, &name, &createdAt); err != nil {
		return nil, err
	}

	tag := models.NewTag(sequence, userID, name)
	tag.SetID(id)
	tag.SetCreatedAt(createdAt)
	tag.SetUpdatedAt(createdAt)

	return tag, nil
}

// Get retrieves a tag by its row id.
func (r *TagRepository) Get(id string) (*models.Tag, error) {
	query := "SELECT id, sequence, user_id, name, created_at FROM tags WHERE id = ?"

	tag, err := scanTag(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTagNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}

	return tag, nil
}

// GetByName retrieves a tag by its (user, name) key.
func (r *TagRepository) GetByName(userID, name string) (*models.Tag, error) {
	query := "SELECT id, sequence, user_id, name, created_at FROM tags WHERE user_id = ? AND name = ?"

	tag, err := scanTag(r.db.QueryRow(query, userID, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTagNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}

	return tag, nil
}

// List retrieves all tags for a user ordered by name.
func (r *TagRepository) List(userID string) ([]*models.Tag, error) {
	query := "SELECT id, sequence, user_id, name, created_at FROM tags WHERE user_id = ? ORDER BY name ASC"

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tags, nil
}

// Delete removes a tag and, via the foreign key cascade, its links.
func (r *TagRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTagNotFound, id)
	}

	return nil
}
