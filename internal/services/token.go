package services

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"

	// expirySkew is how close to expiry a token may get before a refresh
	// is attempted.
	expirySkew = 5 * time.Minute

	// defaultLifetime is assumed when the token endpoint omits expires_in.
	defaultLifetime = time.Hour
)

// Scopes requested during authorization: read-only YouTube data, the
// user's profile, and per-file Drive access for the snapshot.
var googleScopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/drive.file",
}

// NewGoogleOAuthConfig builds the [oauth2.Config] for the Google APIs
// from the application configuration.
func NewGoogleOAuthConfig(cfg shared.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       googleScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}
}

// TokenGuard implements [TokenProvider] over the stored credential of a
// single user.
//
// A credential within five minutes of expiry is refreshed against the
// token endpoint before use. A failed refresh leaves the stored
// credential untouched; a successful one overwrites the access token and
// expiry in a single update.
type TokenGuard struct {
	config *oauth2.Config
	creds  *repositories.CredentialRepository
	userID string
	logger *log.Logger

	current *models.Credential
}

// NewTokenGuard creates a TokenGuard for the given user.
func NewTokenGuard(config *oauth2.Config, creds *repositories.CredentialRepository, userID string, logger *log.Logger) *TokenGuard {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenGuard{config: config, creds: creds, userID: userID, logger: logger}
}

// EnsureValid implements [TokenProvider].
func (g *TokenGuard) EnsureValid(ctx context.Context) bool {
	cred, err := g.creds.GetByUserID(g.userID)
	if err != nil {
		g.logger.Error("no credential available", "user", g.userID, "err", err)
		return false
	}

	if cred.ExpiresWithin(expirySkew) {
		if !g.refresh(ctx, cred) {
			return false
		}
	}

	g.current = cred
	return true
}

// AccessToken implements [TokenProvider].
func (g *TokenGuard) AccessToken() string {
	if g.current == nil {
		return ""
	}
	return g.current.AccessToken()
}

// refresh exchanges the stored refresh token for a new access token.
//
// The credential is mutated and persisted only after the token endpoint
// reports success, so a failed refresh cannot half-update the row.
func (g *TokenGuard) refresh(ctx context.Context, cred *models.Credential) bool {
	if cred.RefreshToken() == "" {
		g.logger.Error("cannot refresh", "user", g.userID, "err", shared.ErrNoRefreshToken)
		return false
	}

	source := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken()})

	token, err := source.Token()
	if err != nil {
		g.logger.Error("token refresh failed", "user", g.userID, "err", err)
		return false
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultLifetime)
	}

	cred.SetTokens(token.AccessToken, token.RefreshToken, expiresAt)

	if err := g.creds.UpdateTokens(cred); err != nil {
		g.logger.Error("failed to store refreshed token", "user", g.userID, "err", err)
		return false
	}

	g.logger.Info("access token refreshed", "user", g.userID, "expires_at", expiresAt)
	return true
}
