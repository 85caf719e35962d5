// Google Drive v3 implementation of snapshot storage
//
// Only drive.file scope operations are used, so the service can only
// see folders and files it created itself.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytboxd/internal/shared"
)

const (
	defaultDriveBaseURL   = "https://www.googleapis.com/drive/v3"
	defaultDriveUploadURL = "https://www.googleapis.com/upload/drive/v3"

	folderMimeType = "application/vnd.google-apps.folder"
)

// driveFile is the subset of file metadata the service reads back.
type driveFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type driveFileList struct {
	Files []driveFile `json:"files"`
}

// DriveService stores and retrieves snapshot documents in the user's
// Google Drive.
type DriveService struct {
	baseURL    string
	uploadURL  string
	tokens     TokenProvider
	httpClient *http.Client
	logger     *log.Logger
}

// NewDriveService creates a Drive client. Empty URLs select the
// production API endpoints.
func NewDriveService(baseURL, uploadURL string, tokens TokenProvider, logger *log.Logger) *DriveService {
	if baseURL == "" {
		baseURL = defaultDriveBaseURL
	}
	if uploadURL == "" {
		uploadURL = defaultDriveUploadURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &DriveService{
		baseURL:    baseURL,
		uploadURL:  uploadURL,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// doRequest performs one authenticated request and returns the response.
// The caller owns the body.
func (d *DriveService) doRequest(ctx context.Context, method, apiURL, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+d.tokens.AccessToken())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return resp, nil
}

// doJSON performs a request and decodes a JSON response into result.
func (d *DriveService) doJSON(ctx context.Context, method, apiURL, contentType string, body io.Reader, result any) error {
	resp, err := d.doRequest(ctx, method, apiURL, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// search runs a files.list query and returns the matches.
func (d *DriveService) search(ctx context.Context, query string) ([]driveFile, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", "files(id,name,mimeType)")

	var list driveFileList
	if err := d.doJSON(ctx, http.MethodGet, d.baseURL+"/files?"+params.Encode(), "", nil, &list); err != nil {
		return nil, err
	}

	return list.Files, nil
}

// EnsureFolder returns the id of the named folder, creating it when it
// does not exist yet.
func (d *DriveService) EnsureFolder(ctx context.Context, name string) (string, error) {
	if !d.tokens.EnsureValid(ctx) {
		return "", shared.ErrNoCredential
	}

	query := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", name, folderMimeType)
	files, err := d.search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: folder lookup: %v", shared.ErrAPIRequest, err)
	}

	if len(files) > 0 {
		return files[0].ID, nil
	}

	metadata, err := json.Marshal(map[string]any{
		"name":     name,
		"mimeType": folderMimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal folder metadata: %w", err)
	}

	var created driveFile
	if err := d.doJSON(ctx, http.MethodPost, d.baseURL+"/files", "application/json", bytes.NewReader(metadata), &created); err != nil {
		return "", fmt.Errorf("%w: folder create: %v", shared.ErrAPIRequest, err)
	}

	d.logger.Info("created drive folder", "name", name, "id", created.ID)

	return created.ID, nil
}

// FindFile looks up a file by name inside a folder. A missing file is
// reported with [shared.ErrSnapshotMissing].
func (d *DriveService) FindFile(ctx context.Context, folderID, name string) (string, error) {
	if !d.tokens.EnsureValid(ctx) {
		return "", shared.ErrNoCredential
	}

	query := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", name, folderID)
	files, err := d.search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: file lookup: %v", shared.ErrAPIRequest, err)
	}

	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrSnapshotMissing, name)
	}

	return files[0].ID, nil
}

// CreateFile creates a named file in a folder and uploads its content.
func (d *DriveService) CreateFile(ctx context.Context, folderID, name, contentType string, content []byte) (string, error) {
	if !d.tokens.EnsureValid(ctx) {
		return "", shared.ErrNoCredential
	}

	metadata, err := json.Marshal(map[string]any{
		"name":    name,
		"parents": []string{folderID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal file metadata: %w", err)
	}

	var created driveFile
	if err := d.doJSON(ctx, http.MethodPost, d.baseURL+"/files", "application/json", bytes.NewReader(metadata), &created); err != nil {
		return "", fmt.Errorf("%w: file create: %v", shared.ErrAPIRequest, err)
	}

	if err := d.UpdateFile(ctx, created.ID, contentType, content); err != nil {
		return "", err
	}

	return created.ID, nil
}

// UpdateFile replaces the content of an existing file.
func (d *DriveService) UpdateFile(ctx context.Context, fileID, contentType string, content []byte) error {
	if !d.tokens.EnsureValid(ctx) {
		return shared.ErrNoCredential
	}

	uploadURL := d.uploadURL + "/files/" + fileID + "?uploadType=media"
	if err := d.doJSON(ctx, http.MethodPatch, uploadURL, contentType, bytes.NewReader(content), nil); err != nil {
		return fmt.Errorf("%w: file upload: %v", shared.ErrAPIRequest, err)
	}

	return nil
}

// Download returns the raw content of a file.
func (d *DriveService) Download(ctx context.Context, fileID string) ([]byte, error) {
	if !d.tokens.EnsureValid(ctx) {
		return nil, shared.ErrNoCredential
	}

	resp, err := d.doRequest(ctx, http.MethodGet, d.baseURL+"/files/"+fileID+"?alt=media", "", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: file download: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return content, nil
}
