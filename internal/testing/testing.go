// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/ytboxd/internal/services"
)

// StaticTokenProvider is a test double for [services.TokenProvider]
type StaticTokenProvider struct {
	Token string
	Valid bool
}

func (s *StaticTokenProvider) EnsureValid(ctx context.Context) bool { return s.Valid }
func (s *StaticTokenProvider) AccessToken() string                 { return s.Token }

// MockVideoSource is a test double for [services.VideoSource]
type MockVideoSource struct {
	PlaylistRecords []services.PlaylistRecord
	PlaylistsErr    error
	Items           map[string]*services.FetchResult
	ItemsErr        map[string]error
	Liked           []services.VideoRecord
	LikedErr        error
}

func (m *MockVideoSource) Playlists(ctx context.Context) ([]services.PlaylistRecord, error) {
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	return m.PlaylistRecords, nil
}

func (m *MockVideoSource) PlaylistItems(ctx context.Context, playlistID string) (*services.FetchResult, error) {
	if err, ok := m.ItemsErr[playlistID]; ok {
		return nil, err
	}
	if result, ok := m.Items[playlistID]; ok {
		return result, nil
	}
	return &services.FetchResult{}, nil
}

func (m *MockVideoSource) LikedVideos(ctx context.Context) ([]services.VideoRecord, error) {
	if m.LikedErr != nil {
		return nil, m.LikedErr
	}
	return m.Liked, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
