package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/server"
	"github.com/desertthunder/ytboxd/internal/services"
	"github.com/desertthunder/ytboxd/internal/shared"
)

// authTimeout bounds how long the login command waits for the browser
// round trip.
const authTimeout = 5 * time.Minute

// AuthLogin runs the Google authorization code flow: it serves the
// OAuth callback locally, opens the consent page in the browser, then
// stores the account and its tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, false)
	if err != nil {
		return err
	}
	defer lib.Close()

	google := lib.config.Credentials.Google
	if google.ClientID == "" || google.ClientSecret == "" {
		return fmt.Errorf("%w: set credentials.google in the config file", shared.ErrMissingCredentials)
	}

	redirect, err := url.Parse(google.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, google.RedirectURI)
	}

	oauthConfig := services.NewGoogleOAuthConfig(google)
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(oauthConfig, state)

	router := server.NewBasicRouter()
	router.Handler(handler)

	srv := &http.Server{Addr: redirect.Host, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("callback server failed", "err", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	r.writePlain("Opening browser for Google sign-in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "err", err)
		r.writePlain("Visit this URL to authorize:\n%s\n", authURL)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-time.After(authTimeout):
		return fmt.Errorf("%w: timed out waiting for authorization", shared.ErrAuthFailed)
	case <-ctx.Done():
		return ctx.Err()
	}

	if result.Error() != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	token := result.Token
	info, err := services.FetchUserInfo(ctx, r.httpClient, "", token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to fetch user profile: %w", err)
	}

	user, err := r.saveAccount(lib, info, token)
	if err != nil {
		return err
	}

	r.logger.Info("authorization complete", "email", user.Email())
	r.writePlain("✓ Signed in as %s\n", user.Email())
	return nil
}

// saveAccount stores the profile and tokens from a completed flow,
// reusing the existing user row when the email is already known.
func (r *Runner) saveAccount(lib *library, info *services.UserInfo, token *oauth2.Token) (*models.User, error) {
	user, err := lib.users.GetByEmail(info.Email)
	if err != nil {
		users, err := lib.users.List(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		user = models.NewUser(len(users)+1, info.Email, info.Name)
		if err := lib.users.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	} else if user.Name() != info.Name {
		user.SetName(info.Name)
		if err := lib.users.Update(user); err != nil {
			r.logger.Warn("failed to update user name", "err", err)
		}
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(time.Hour)
	}

	cred := models.NewCredential(user.ID(), token.AccessToken, token.RefreshToken, expiry)
	if err := lib.creds.Upsert(cred); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	return user, nil
}

// AuthStatus reports the signed-in account and the state of its tokens.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	cred, err := lib.creds.GetByUserID(lib.user.ID())
	if err != nil {
		return fmt.Errorf("%w: run 'ytboxd auth login' first", shared.ErrNoCredential)
	}

	r.writePlain("Account: %s\n", lib.user.Email())
	if cred.IsExpired() {
		r.writePlain("Access token: expired at %s\n", cred.ExpiresAt().Format(time.RFC3339))
	} else {
		r.writePlain("Access token: valid until %s\n", cred.ExpiresAt().Format(time.RFC3339))
	}
	if cred.RefreshToken() == "" {
		r.writePlain("Refresh token: missing (re-run 'ytboxd auth login')\n")
	} else {
		r.writePlain("Refresh token: present\n")
	}

	return nil
}
