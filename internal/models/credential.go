package models

import (
	"fmt"
	"time"
)

// Credential stores the OAuth tokens for a user.
//
// There is at most one live Credential per user: refreshes mutate the
// stored row in place, they never append a second one.
type Credential struct {
	base
	userID       string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewCredential creates a new Credential for the given user.
func NewCredential(userID, accessToken, refreshToken string, expiresAt time.Time) *Credential {
	return &Credential{
		base:         newBase(),
		userID:       userID,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
	}
}

func (c *Credential) UserID() string          { return c.userID }
func (c *Credential) AccessToken() string     { return c.accessToken }
func (c *Credential) RefreshToken() string    { return c.refreshToken }
func (c *Credential) ExpiresAt() time.Time    { return c.expiresAt }

// SetTokens overwrites the access token and expiry together, keeping the
// refresh token unless a new one is supplied.
func (c *Credential) SetTokens(accessToken, refreshToken string, expiresAt time.Time) {
	c.accessToken = accessToken
	if refreshToken != "" {
		c.refreshToken = refreshToken
	}
	c.expiresAt = expiresAt
}

// IsExpired reports whether the access token has expired.
func (c *Credential) IsExpired() bool {
	return !c.expiresAt.After(time.Now())
}

// ExpiresWithin reports whether the access token expires within d of now.
func (c *Credential) ExpiresWithin(d time.Duration) bool {
	return !c.expiresAt.After(time.Now().Add(d))
}

// Validate checks that the credential references a user and carries a token.
func (c *Credential) Validate() error {
	if c.userID == "" {
		return fmt.Errorf("credential user is required")
	}
	if c.accessToken == "" {
		return fmt.Errorf("credential access token is required")
	}
	return nil
}
