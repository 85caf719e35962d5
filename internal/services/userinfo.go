package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/ytboxd/internal/shared"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserInfo is the profile returned by the Google userinfo endpoint.
type UserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FetchUserInfo looks up the profile behind an access token. An empty
// baseURL selects the production endpoint.
func FetchUserInfo(ctx context.Context, client *http.Client, baseURL, accessToken string) (*UserInfo, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultUserInfoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: userinfo: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if info.Email == "" {
		return nil, fmt.Errorf("%w: userinfo response missing email", shared.ErrAPIRequest)
	}

	return &info, nil
}
