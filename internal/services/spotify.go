// Spotify API implementation of [SourceCatalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"tuneshift/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPageLimit = 100
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	IsLocal     bool            `json:"is_local"`
	ExternalIDs externalIDs     `json:"external_ids"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       owner             `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	Images      []SpotifyImage    `json:"images"`
}

// SpotifyPlaylistItem represents a track entry within a playlist page.
// Track is a pointer: the API returns null for removed or unavailable entries.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents one page of playlist tracks.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyService implements [SourceCatalog] for public playlists using the
// client credentials grant, so no user login is required on the source side.
type SpotifyService struct {
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a Spotify reader from app credentials.
func NewSpotifyService(clientID, clientSecret string) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	client := config.Client(context.Background())
	client.Timeout = 10 * time.Second

	return &SpotifyService{httpClient: client, baseURL: spotifyBaseURL}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// ParsePlaylistURL extracts a playlist ID from an open.spotify.com URL,
// a spotify:playlist: URI, or a bare ID.
func ParsePlaylistURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty playlist reference", shared.ErrInvalidInput)
	}

	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:"), nil
	}

	if strings.Contains(input, "open.spotify.com") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, part := range parts {
			if part == "playlist" && i+1 < len(parts) {
				return parts[i+1], nil
			}
		}
		return "", fmt.Errorf("%w: no playlist ID in URL %s", shared.ErrInvalidInput, input)
	}

	if strings.ContainsAny(input, "/:?") {
		return "", fmt.Errorf("%w: unrecognized playlist reference %s", shared.ErrInvalidInput, input)
	}

	return input, nil
}

// doRequest performs a GET against the Spotify API and decodes the response.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := classifySpotifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifySpotifyStatus maps response codes onto the shared error taxonomy.
// Spotify reports private playlists as 404 to unauthorized callers, so both
// map to not-found here; 401/403 indicate the app token itself was rejected.
func classifySpotifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: spotify returned 404", shared.ErrPlaylistNotFound)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrPlaylistPrivate, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: spotify returned 429", shared.ErrRateLimited)
	case code >= 500:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrTransient, code)
	default:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrAPIRequest, code)
	}
}

// PlaylistInfo retrieves playlist metadata by ID.
func (s *SpotifyService) PlaylistInfo(ctx context.Context, playlistID string) (*SourcePlaylist, error) {
	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, endpoint, &sp); err != nil {
		return nil, err
	}

	info := &SourcePlaylist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}
	if len(sp.Images) > 0 {
		info.ImageURL = sp.Images[0].URL
	}

	return info, nil
}

// FetchTracks retrieves the complete ordered track listing, walking the
// paginated /playlists/{id}/tracks endpoint. Entries with a null track
// object (local or region-blocked items) are skipped.
func (s *SpotifyService) FetchTracks(ctx context.Context, playlistID string) ([]SourceTrack, error) {
	var tracks []SourceTrack
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d",
			url.PathEscape(playlistID), spotifyPageLimit, offset)

		var page SpotifyPaginatedItems
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.IsLocal || item.Track.ID == "" {
				continue
			}

			track := SourceTrack{
				ID:       item.Track.ID,
				Title:    item.Track.Name,
				Album:    item.Track.Album.Name,
				Duration: item.Track.DurationMS / 1000,
				ISRC:     item.Track.ExternalIDs.ISRC,
			}
			for _, a := range item.Track.Artists {
				if a.Name != "" {
					track.Artists = append(track.Artists, a.Name)
				}
			}
			track.Artist = strings.Join(track.Artists, ", ")

			tracks = append(tracks, track)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += spotifyPageLimit
	}

	return tracks, nil
}
