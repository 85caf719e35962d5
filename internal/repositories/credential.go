package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// CredentialRepository persists OAuth credentials, one row per user.
//
// The UNIQUE constraint on user_id enforces the replace-on-refresh
// invariant: authorization upserts the single row, refreshes update it
// in place.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Upsert stores the credential for its user, replacing any existing one.
func (r *CredentialRepository) Upsert(cred *models.Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if cred.ID() == "" {
		cred.SetID(shared.GenerateID())
	}

	now := time.Now()
	cred.SetUpdatedAt(now)

	query := `
		INSERT INTO credentials (id, user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE credentials.refresh_token END,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		cred.ID(),
		cred.UserID(),
		cred.AccessToken(),
		cred.RefreshToken(),
		cred.ExpiresAt(),
		cred.CreatedAt(),
		cred.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// GetByUserID retrieves the credential for a user.
//
// Returns [shared.ErrNoCredential] when the user has never authorized.
func (r *CredentialRepository) GetByUserID(userID string) (*models.Credential, error) {
	query := `
		SELECT id, user_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM credentials
		WHERE user_id = ?
	`

	var (
		id           string
		uid          string
		accessToken  string
		refreshToken sql.NullString
		expiresAt    time.Time
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := r.db.QueryRow(query, userID).Scan(&id, &uid, &accessToken, &refreshToken, &expiresAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNoCredential, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	cred := models.NewCredential(uid, accessToken, refreshToken.String, expiresAt)
	cred.SetID(id)
	cred.SetCreatedAt(createdAt)
	cred.SetUpdatedAt(updatedAt)

	return cred, nil
}

// UpdateTokens overwrites the access token and expiry in a single update.
//
// Called after a successful refresh; a failed refresh never reaches here,
// leaving the stored row untouched.
func (r *CredentialRepository) UpdateTokens(cred *models.Credential) error {
	now := time.Now()
	cred.SetUpdatedAt(now)

	query := `
		UPDATE credentials
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE user_id = ?
	`

	result, err := r.db.Exec(query, cred.AccessToken(), cred.RefreshToken(), cred.ExpiresAt(), now, cred.UserID())
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNoCredential, cred.UserID())
	}

	return nil
}

// Delete removes the credential for a user.
func (r *CredentialRepository) Delete(userID string) error {
	_, err := r.db.Exec("DELETE FROM credentials WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
