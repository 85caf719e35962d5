// package models defines the data model for the video bookmarking service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the video bookmarking service.
// Implementations include User, Credential, Video, Playlist, Tag.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// base carries the identity and timestamp fields shared by all models.
type base struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
}

func newBase() base {
	now := time.Now()
	return base{createdAt: now, updatedAt: now}
}

func (b *base) ID() string                 { return b.id }
func (b *base) SetID(id string)            { b.id = id }
func (b *base) CreatedAt() time.Time       { return b.createdAt }
func (b *base) SetCreatedAt(t time.Time)   { b.createdAt = t }
func (b *base) UpdatedAt() time.Time       { return b.updatedAt }
func (b *base) SetUpdatedAt(t time.Time)   { b.updatedAt = t }
