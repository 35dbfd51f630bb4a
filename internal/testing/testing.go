// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"golang.org/x/oauth2"
	"tuneshift/internal/services"
)

// MockSourceCatalog is a configurable test double for [services.SourceCatalog].
type MockSourceCatalog struct {
	Playlist *services.SourcePlaylist
	Tracks   []services.SourceTrack
	InfoErr  error
	FetchErr error
}

func (m *MockSourceCatalog) PlaylistInfo(ctx context.Context, playlistID string) (*services.SourcePlaylist, error) {
	if m.InfoErr != nil {
		return nil, m.InfoErr
	}
	if m.Playlist != nil {
		return m.Playlist, nil
	}
	return &services.SourcePlaylist{ID: playlistID, Name: "Mock Playlist", TrackCount: len(m.Tracks)}, nil
}

func (m *MockSourceCatalog) FetchTracks(ctx context.Context, playlistID string) ([]services.SourceTrack, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Tracks, nil
}

func (m *MockSourceCatalog) Name() string { return "mock-source" }

// MockSearchCatalog maps queries to canned candidates or errors. Safe for
// concurrent use; calls are recorded.
type MockSearchCatalog struct {
	mu      sync.Mutex
	Results map[string][]services.Candidate
	Errs    map[string]error
	Calls   []string
}

func (m *MockSearchCatalog) Search(ctx context.Context, query string, maxResults int) ([]services.Candidate, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, query)
	m.mu.Unlock()

	if err, ok := m.Errs[query]; ok {
		return nil, err
	}
	return m.Results[query], nil
}

func (m *MockSearchCatalog) Name() string { return "mock-search" }

// CallCount returns how many searches have been issued.
func (m *MockSearchCatalog) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockPlaylistWriter records created playlists and inserted items.
// InsertErrs maps a video ID to a queue of errors returned before success,
// which exercises retry paths.
type MockPlaylistWriter struct {
	mu         sync.Mutex
	CreateErr  error
	InsertErrs map[string][]error
	AuthErr    error

	Created  []services.PlaylistRef
	Inserted []string
	Token    *oauth2.Token
}

func (m *MockPlaylistWriter) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if m.AuthErr != nil {
		return m.AuthErr
	}
	m.Token = token
	return nil
}

func (m *MockPlaylistWriter) CreatePlaylist(ctx context.Context, title, description string, private bool) (*services.PlaylistRef, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := services.PlaylistRef{ID: "mock-playlist", Title: title, URL: "https://example.com/mock-playlist"}
	m.Created = append(m.Created, ref)
	return &ref, nil
}

func (m *MockPlaylistWriter) InsertItem(ctx context.Context, playlist *services.PlaylistRef, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if queue := m.InsertErrs[videoID]; len(queue) > 0 {
		err := queue[0]
		m.InsertErrs[videoID] = queue[1:]
		return err
	}

	m.Inserted = append(m.Inserted, videoID)
	return nil
}

func (m *MockPlaylistWriter) Name() string { return "mock-writer" }

// MockTokenProvider returns a fixed token or error, optionally blocking
// until the context is cancelled.
type MockTokenProvider struct {
	Token *oauth2.Token
	Err   error
	Block bool
}

func (m *MockTokenProvider) GetAccessToken(ctx context.Context) (*oauth2.Token, error) {
	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Token != nil {
		return m.Token, nil
	}
	return &oauth2.Token{AccessToken: "mock-token"}, nil
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
