package models

import (
	"fmt"
	"time"
)

// User represents an account identified by the email returned from the
// Google userinfo endpoint during authorization.
type User struct {
	base
	sequence  int
	email     string
	name      string
	deletedAt *time.Time
}

// NewUser creates a new User with the given sequence, email and display name.
func NewUser(sequence int, email, name string) *User {
	return &User{base: newBase(), sequence: sequence, email: email, name: name}
}

func (u *User) Sequence() int            { return u.sequence }
func (u *User) Email() string            { return u.email }
func (u *User) Name() string             { return u.name }
func (u *User) SetName(name string)      { u.name = name }
func (u *User) DeletedAt() *time.Time    { return u.deletedAt }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// Validate checks that the user has an email address.
func (u *User) Validate() error {
	if u.email == "" {
		return fmt.Errorf("user email is required")
	}
	return nil
}
