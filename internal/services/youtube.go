// YouTube Data API v3 implementations of [SearchCatalog] and [PlaylistWriter]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"tuneshift/internal/shared"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

type youtubeID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubeThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type youtubeSnippet struct {
	Title        string                      `json:"title"`
	Description  string                      `json:"description"`
	ChannelTitle string                      `json:"channelTitle"`
	Thumbnails   map[string]youtubeThumbnail `json:"thumbnails"`
}

type youtubeSearchItem struct {
	ID      youtubeID      `json:"id"`
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []youtubeSearchItem `json:"items"`
}

type youtubeContentDetails struct {
	Duration string `json:"duration"` // ISO-8601, e.g. PT3M42S
}

type youtubeVideoItem struct {
	ID             string                `json:"id"`
	Snippet        youtubeSnippet        `json:"snippet"`
	ContentDetails youtubeContentDetails `json:"contentDetails"`
}

type youtubeVideosResponse struct {
	Items []youtubeVideoItem `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeSearchService implements [SearchCatalog] with an API key. Search
// results carry no durations, so each page is hydrated with a videos.list
// call for contentDetails.
type YouTubeSearchService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewYouTubeSearchService creates a search client from an API key.
func NewYouTubeSearchService(apiKey string) (*YouTubeSearchService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api_key", shared.ErrMissingCredentials)
	}

	return &YouTubeSearchService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    youtubeBaseURL,
	}, nil
}

func (y *YouTubeSearchService) Name() string {
	return "YouTube"
}

// Search queries search.list and hydrates durations, preserving the
// destination's result ranking.
func (y *YouTubeSearchService) Search(ctx context.Context, query string, maxResults int) ([]Candidate, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 50 {
		maxResults = 50
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("videoCategoryId", "10") // Music
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("key", y.apiKey)

	var search youtubeSearchResponse
	if err := y.doRequest(ctx, "/search?"+params.Encode(), &search); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(search.Items))
	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID == "" {
			continue
		}
		c := Candidate{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
		}
		if thumb, ok := item.Snippet.Thumbnails["medium"]; ok {
			c.ThumbnailURL = thumb.URL
		} else if thumb, ok := item.Snippet.Thumbnails["default"]; ok {
			c.ThumbnailURL = thumb.URL
		}
		candidates = append(candidates, c)
		ids = append(ids, item.ID.VideoID)
	}

	if len(ids) == 0 {
		return candidates, nil
	}

	durations, err := y.videoDurations(ctx, ids)
	if err != nil {
		// Candidates without durations are still scoreable; the title and
		// artist signals absorb the duration weight.
		return candidates, nil
	}

	for i := range candidates {
		candidates[i].Duration = durations[candidates[i].VideoID]
	}

	return candidates, nil
}

// videoDurations resolves durations in seconds for a batch of video IDs.
func (y *YouTubeSearchService) videoDurations(ctx context.Context, ids []string) (map[string]int, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", y.apiKey)

	var videos youtubeVideosResponse
	if err := y.doRequest(ctx, "/videos?"+params.Encode(), &videos); err != nil {
		return nil, err
	}

	durations := make(map[string]int, len(videos.Items))
	for _, item := range videos.Items {
		durations[item.ID] = parseISODuration(item.ContentDetails.Duration)
	}

	return durations, nil
}

func (y *YouTubeSearchService) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyYouTubeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyYouTubeError maps an error response onto the shared taxonomy,
// reading the structured error body when one is present.
func classifyYouTubeError(resp *http.Response) error {
	var body youtubeErrorResponse
	reason := ""
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && len(body.Error.Errors) > 0 {
		reason = body.Error.Errors[0].Reason
	}

	switch {
	case reason == "quotaExceeded" || reason == "dailyLimitExceeded":
		return fmt.Errorf("%w: %s", shared.ErrQuotaExceeded, reason)
	case resp.StatusCode == http.StatusTooManyRequests || reason == "rateLimitExceeded" || reason == "userRateLimitExceeded":
		return fmt.Errorf("%w: youtube returned %d", shared.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: youtube returned 401", shared.ErrAuthExpired)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: youtube returned 403 (%s)", shared.ErrAuthFailed, reason)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: youtube returned 404", shared.ErrInvalidItem)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: youtube returned %d", shared.ErrTransient, resp.StatusCode)
	default:
		return fmt.Errorf("%w: youtube returned %d (%s)", shared.ErrAPIRequest, resp.StatusCode, body.Error.Message)
	}
}

// parseISODuration converts an ISO-8601 duration (PT#H#M#S) to seconds.
// Returns 0 for anything it cannot parse.
func parseISODuration(iso string) int {
	s, ok := strings.CutPrefix(iso, "PT")
	if !ok {
		return 0
	}

	total, n := 0, 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			continue
		}
		switch r {
		case 'H':
			total += n * 3600
		case 'M':
			total += n * 60
		case 'S':
			total += n
		default:
			return 0
		}
		n = 0
	}

	return total
}

// YouTubePlaylistWriter implements [PlaylistWriter] with an OAuth bearer token.
type YouTubePlaylistWriter struct {
	httpClient *http.Client
	token      *oauth2.Token
	baseURL    string
}

// NewYouTubePlaylistWriter creates an unauthenticated writer; Authenticate
// must be called before any write.
func NewYouTubePlaylistWriter() *YouTubePlaylistWriter {
	return &YouTubePlaylistWriter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    youtubeBaseURL,
	}
}

func (y *YouTubePlaylistWriter) Name() string {
	return "YouTube"
}

// Authenticate installs the OAuth token used for subsequent write calls.
func (y *YouTubePlaylistWriter) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrNotAuthenticated)
	}
	y.token = token
	return nil
}

// CreatePlaylist creates an empty playlist via playlists.insert.
func (y *YouTubePlaylistWriter) CreatePlaylist(ctx context.Context, title, description string, private bool) (*PlaylistRef, error) {
	privacy := "public"
	if private {
		privacy = "private"
	}

	body := map[string]any{
		"snippet": map[string]any{
			"title":       title,
			"description": description,
		},
		"status": map[string]any{
			"privacyStatus": privacy,
		},
	}

	var created struct {
		ID      string         `json:"id"`
		Snippet youtubeSnippet `json:"snippet"`
	}
	if err := y.doPost(ctx, "/playlists?part=snippet,status", body, &created); err != nil {
		return nil, err
	}

	return &PlaylistRef{
		ID:    created.ID,
		Title: created.Snippet.Title,
		URL:   "https://www.youtube.com/playlist?list=" + created.ID,
	}, nil
}

// InsertItem appends a video to the playlist via playlistItems.insert.
func (y *YouTubePlaylistWriter) InsertItem(ctx context.Context, playlist *PlaylistRef, videoID string) error {
	if playlist == nil || playlist.ID == "" {
		return fmt.Errorf("%w: missing playlist reference", shared.ErrInvalidArgument)
	}

	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlist.ID,
			"resourceId": map[string]any{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}

	return y.doPost(ctx, "/playlistItems?part=snippet", body, nil)
}

func (y *YouTubePlaylistWriter) doPost(ctx context.Context, endpoint string, body, result any) error {
	if y.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+y.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyYouTubeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
