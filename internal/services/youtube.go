// YouTube Data API v3 implementation of [VideoSource]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// pageSize is the maximum page size the API allows.
	pageSize = "50"
)

// StatusError is a non-success HTTP response from the remote API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("youtube API error: status %d", e.Code)
}

// IsForbidden reports whether err is a 403 response.
func IsForbidden(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusForbidden
}

// ytThumbnail is one image variant in a thumbnails map.
type ytThumbnail struct {
	URL string `json:"url"`
}

type ytThumbnails struct {
	High    *ytThumbnail `json:"high"`
	Default *ytThumbnail `json:"default"`
}

func (t ytThumbnails) best() string {
	if t.High != nil {
		return t.High.URL
	}
	if t.Default != nil {
		return t.Default.URL
	}
	return ""
}

type ytResourceID struct {
	VideoID string `json:"videoId"`
}

// ytSnippet covers the snippet shape shared by videos, playlist items
// and playlists. Absent fields decode to zero values and are mapped to
// documented defaults in the record constructors.
type ytSnippet struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	PublishedAt  string        `json:"publishedAt"`
	ChannelID    string        `json:"channelId"`
	ChannelTitle string        `json:"channelTitle"`
	Thumbnails   ytThumbnails  `json:"thumbnails"`
	ResourceID   *ytResourceID `json:"resourceId"`
}

func (s ytSnippet) publishedTime() time.Time {
	t, err := time.Parse(time.RFC3339, s.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s ytSnippet) videoRecord(videoID string) VideoRecord {
	record := VideoRecord{
		VideoID:      videoID,
		Title:        s.Title,
		Description:  s.Description,
		ThumbnailURL: s.Thumbnails.best(),
		ChannelID:    s.ChannelID,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  s.publishedTime(),
	}
	if record.Title == "" {
		record.Title = UntitledVideo
	}
	if record.ChannelTitle == "" {
		record.ChannelTitle = UnknownChannel
	}
	return record
}

// ytPlaylistItem is one entry of a playlistItems listing.
type ytPlaylistItem struct {
	Snippet ytSnippet `json:"snippet"`
}

// ytVideo is one entry of a videos listing.
type ytVideo struct {
	ID      string    `json:"id"`
	Snippet ytSnippet `json:"snippet"`
}

type ytContentDetails struct {
	ItemCount int `json:"itemCount"`
}

// ytPlaylist is one entry of a playlists listing.
type ytPlaylist struct {
	ID             string           `json:"id"`
	Snippet        ytSnippet        `json:"snippet"`
	ContentDetails ytContentDetails `json:"contentDetails"`
}

// YouTubeService implements [VideoSource] against the YouTube Data API.
//
// Every listing drains pagination sequentially: each page's token comes
// from the previous response, so pages cannot be fetched in parallel.
type YouTubeService struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewYouTubeService creates a YouTube client. An empty baseURL selects
// the production API endpoint.
func NewYouTubeService(baseURL string, tokens TokenProvider, logger *log.Logger) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &YouTubeService{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(8), 1),
		logger:     logger,
	}
}

// getPage performs one authenticated page request and decodes the body
// into result.
func (y *YouTubeService) getPage(ctx context.Context, path string, params url.Values, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	apiURL := y.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+y.tokens.AccessToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// fetchAll drains a paginated listing, concatenating items in page order.
//
// A failure on the first page is a hard failure. A failure on any later
// page is soft: the partial list gathered so far is returned, which is
// safe because callers reconcile by set difference rather than trusting
// completeness.
func fetchAll[T any](ctx context.Context, y *YouTubeService, path string, params url.Values) ([]T, error) {
	var all []T

	pageParams := url.Values{}
	for k, v := range params {
		pageParams[k] = v
	}
	pageParams.Set("maxResults", pageSize)

	for page := 1; ; page++ {
		var body struct {
			Items         []T    `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}

		if err := y.getPage(ctx, path, pageParams, &body); err != nil {
			if page == 1 {
				return nil, err
			}
			y.logger.Warn("partial fetch: page failed", "path", path, "page", page, "err", err)
			return all, nil
		}

		all = append(all, body.Items...)

		if body.NextPageToken == "" {
			return all, nil
		}
		pageParams.Set("pageToken", body.NextPageToken)
	}
}

// Playlists implements [VideoSource].
func (y *YouTubeService) Playlists(ctx context.Context) ([]PlaylistRecord, error) {
	if !y.tokens.EnsureValid(ctx) {
		return nil, shared.ErrNoCredential
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("mine", "true")

	items, err := fetchAll[ytPlaylist](ctx, y, "/playlists", params)
	if err != nil {
		return nil, fmt.Errorf("%w: playlists: %v", shared.ErrAPIRequest, err)
	}

	records := make([]PlaylistRecord, 0, len(items))
	for _, item := range items {
		record := PlaylistRecord{
			PlaylistID:   item.ID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ThumbnailURL: item.Snippet.Thumbnails.best(),
			ItemCount:    item.ContentDetails.ItemCount,
			ChannelID:    item.Snippet.ChannelID,
		}
		if record.Title == "" {
			record.Title = UntitledPlaylist
		}
		records = append(records, record)
	}

	return records, nil
}

// PlaylistItems implements [VideoSource].
//
// A 403 on a system playlist (Watch Later, watch history) means the
// platform walls it off by policy; that is reported as an authoritative
// empty result, not a failure. A 403 on a user playlist is an ordinary
// failure like any other status, so callers keep their stored state.
func (y *YouTubeService) PlaylistItems(ctx context.Context, playlistID string) (*FetchResult, error) {
	if !y.tokens.EnsureValid(ctx) {
		return nil, shared.ErrNoCredential
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("playlistId", playlistID)

	items, err := fetchAll[ytPlaylistItem](ctx, y, "/playlistItems", params)
	if err != nil {
		if IsForbidden(err) && models.IsSystemPlaylist(playlistID) {
			y.logger.Info("playlist restricted by platform policy", "playlist", playlistID)
			return &FetchResult{Restricted: true}, nil
		}
		return nil, fmt.Errorf("%w: playlist %s: %v", shared.ErrAPIRequest, playlistID, err)
	}

	records := make([]VideoRecord, 0, len(items))
	for _, item := range items {
		if item.Snippet.ResourceID == nil || item.Snippet.ResourceID.VideoID == "" {
			y.logger.Warn("playlist item without video id skipped", "playlist", playlistID)
			continue
		}
		records = append(records, item.Snippet.videoRecord(item.Snippet.ResourceID.VideoID))
	}

	return &FetchResult{Records: records}, nil
}

// LikedVideos implements [VideoSource].
func (y *YouTubeService) LikedVideos(ctx context.Context) ([]VideoRecord, error) {
	if !y.tokens.EnsureValid(ctx) {
		return nil, shared.ErrNoCredential
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("myRating", "like")

	items, err := fetchAll[ytVideo](ctx, y, "/videos", params)
	if err != nil {
		return nil, fmt.Errorf("%w: liked videos: %v", shared.ErrAPIRequest, err)
	}

	records := make([]VideoRecord, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		records = append(records, item.Snippet.videoRecord(item.ID))
	}

	return records, nil
}
