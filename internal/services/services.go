// package services defines the external collaborators of the conversion
// pipeline: the Spotify source catalog, the YouTube search catalog and
// playlist writer, and the token provider for the destination write API.
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// SourceCatalog reads playlists from the source service.
type SourceCatalog interface {
	// PlaylistInfo retrieves playlist metadata by ID.
	PlaylistInfo(ctx context.Context, playlistID string) (*SourcePlaylist, error)

	// FetchTracks retrieves the full ordered track listing of a playlist,
	// paginating as needed. Unplayable or local entries are skipped.
	FetchTracks(ctx context.Context, playlistID string) ([]SourceTrack, error)

	// Name returns the display name of the service.
	Name() string
}

// SearchCatalog queries the destination service for candidate videos.
type SearchCatalog interface {
	// Search returns up to maxResults candidates for a free-text query,
	// in the order the destination ranked them.
	Search(ctx context.Context, query string, maxResults int) ([]Candidate, error)

	// Name returns the display name of the service.
	Name() string
}

// PlaylistWriter creates playlists and inserts items on the destination service.
type PlaylistWriter interface {
	// Authenticate installs an access token for subsequent write calls.
	Authenticate(ctx context.Context, token *oauth2.Token) error

	// CreatePlaylist creates an empty playlist and returns a reference to it.
	CreatePlaylist(ctx context.Context, title, description string, private bool) (*PlaylistRef, error)

	// InsertItem appends a video to the playlist.
	InsertItem(ctx context.Context, playlist *PlaylistRef, videoID string) error

	// Name returns the display name of the service.
	Name() string
}

// TokenProvider obtains an access token for the destination write API.
// Implementations may block on user interaction (browser consent); they
// must honor ctx cancellation.
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (*oauth2.Token, error)
}

// SourcePlaylist represents playlist metadata from the source service.
type SourcePlaylist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	TrackCount  int
	Public      bool
	ImageURL    string
}

// SourceTrack represents one track of the source playlist. Artists holds
// every credited name in source order; Artist is the same set joined for
// display and search queries.
type SourceTrack struct {
	ID       string
	Title    string
	Artist   string
	Artists  []string
	Album    string
	Duration int // seconds, 0 when unknown
	ISRC     string
}

// Candidate represents one destination search result.
type Candidate struct {
	VideoID      string
	Title        string
	ChannelTitle string
	Duration     int // seconds, 0 when unknown
	ThumbnailURL string
}

// PlaylistRef identifies a created destination playlist.
type PlaylistRef struct {
	ID    string
	Title string
	URL   string
}
