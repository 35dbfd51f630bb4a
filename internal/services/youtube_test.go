package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
	"tuneshift/internal/shared"
)

func TestParseISODuration(t *testing.T) {
	tc := []struct {
		iso  string
		want int
	}{
		{iso: "PT3M42S", want: 222},
		{iso: "PT1H2M3S", want: 3723},
		{iso: "PT45S", want: 45},
		{iso: "PT2M", want: 120},
		{iso: "P1D", want: 0},
		{iso: "", want: 0},
		{iso: "garbage", want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.iso, func(t *testing.T) {
			if got := parseISODuration(tt.iso); got != tt.want {
				t.Errorf("parseISODuration(%q) = %d, want %d", tt.iso, got, tt.want)
			}
		})
	}
}

func TestYouTubeSearchService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		if _, err := NewYouTubeSearchService(""); err == nil {
			t.Fatal("expected error for missing api key")
		}
	})

	t.Run("Search hydrates durations", func(t *testing.T) {
		searchResp := map[string]any{
			"items": []map[string]any{
				{
					"id": map[string]any{"kind": "youtube#video", "videoId": "vid1"},
					"snippet": map[string]any{
						"title":        "Song One (Official Video)",
						"channelTitle": "Artist One",
						"thumbnails": map[string]any{
							"medium": map[string]any{"url": "http://img/vid1.jpg"},
						},
					},
				},
				{
					"id": map[string]any{"kind": "youtube#video", "videoId": "vid2"},
					"snippet": map[string]any{
						"title":        "Song One Live",
						"channelTitle": "Concert Channel",
					},
				},
			},
		}
		videosResp := map[string]any{
			"items": []map[string]any{
				{"id": "vid1", "contentDetails": map[string]any{"duration": "PT3M42S"}},
				{"id": "vid2", "contentDetails": map[string]any{"duration": "PT5M1S"}},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "test_key" {
				t.Errorf("expected api key on request, got %q", r.URL.Query().Get("key"))
			}

			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/search":
				if r.URL.Query().Get("q") != "Song One Artist One" {
					t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
				}
				json.NewEncoder(w).Encode(searchResp)
			case "/videos":
				json.NewEncoder(w).Encode(videosResp)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		svc := &YouTubeSearchService{apiKey: "test_key", httpClient: server.Client(), baseURL: server.URL}
		candidates, err := svc.Search(context.Background(), "Song One Artist One", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		if candidates[0].VideoID != "vid1" || candidates[1].VideoID != "vid2" {
			t.Errorf("candidate order not preserved: %v", candidates)
		}
		if candidates[0].Duration != 222 {
			t.Errorf("expected duration 222, got %d", candidates[0].Duration)
		}
		if candidates[1].Duration != 301 {
			t.Errorf("expected duration 301, got %d", candidates[1].Duration)
		}
		if candidates[0].ThumbnailURL != "http://img/vid1.jpg" {
			t.Errorf("expected medium thumbnail, got %s", candidates[0].ThumbnailURL)
		}
	})

	t.Run("Search returns empty for no results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
		}))
		defer server.Close()

		svc := &YouTubeSearchService{apiKey: "test_key", httpClient: server.Client(), baseURL: server.URL}
		candidates, err := svc.Search(context.Background(), "nothing matches this", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(candidates) != 0 {
			t.Errorf("expected no candidates, got %d", len(candidates))
		}
	})

	t.Run("classifies quota exhaustion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":   403,
					"errors": []map[string]any{{"reason": "quotaExceeded"}},
				},
			})
		}))
		defer server.Close()

		svc := &YouTubeSearchService{apiKey: "test_key", httpClient: server.Client(), baseURL: server.URL}
		_, err := svc.Search(context.Background(), "anything", 5)
		if !errors.Is(err, shared.ErrQuotaExceeded) {
			t.Errorf("expected quota exceeded error, got %v", err)
		}
	})

	t.Run("classifies rate limiting", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc := &YouTubeSearchService{apiKey: "test_key", httpClient: server.Client(), baseURL: server.URL}
		_, err := svc.Search(context.Background(), "anything", 5)
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected rate limited error, got %v", err)
		}
	})
}

func TestYouTubePlaylistWriter(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		w := NewYouTubePlaylistWriter()
		_, err := w.CreatePlaylist(context.Background(), "Mix", "", true)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected not authenticated error, got %v", err)
		}

		if err := w.Authenticate(context.Background(), nil); err == nil {
			t.Error("expected error for nil token")
		}
	})

	t.Run("CreatePlaylist and InsertItem", func(t *testing.T) {
		var inserted []string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok123" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			w.Header().Set("Content-Type", "application/json")

			switch r.URL.Path {
			case "/playlists":
				var body struct {
					Snippet struct {
						Title       string `json:"title"`
						Description string `json:"description"`
					} `json:"snippet"`
					Status struct {
						PrivacyStatus string `json:"privacyStatus"`
					} `json:"status"`
				}
				json.NewDecoder(r.Body).Decode(&body)

				if body.Snippet.Title != "Road Trip" {
					t.Errorf("expected title Road Trip, got %s", body.Snippet.Title)
				}
				if body.Status.PrivacyStatus != "private" {
					t.Errorf("expected private playlist, got %s", body.Status.PrivacyStatus)
				}

				json.NewEncoder(w).Encode(map[string]any{
					"id":      "PL_NEW",
					"snippet": map[string]any{"title": body.Snippet.Title},
				})
			case "/playlistItems":
				var body struct {
					Snippet struct {
						PlaylistID string `json:"playlistId"`
						ResourceID struct {
							Kind    string `json:"kind"`
							VideoID string `json:"videoId"`
						} `json:"resourceId"`
					} `json:"snippet"`
				}
				json.NewDecoder(r.Body).Decode(&body)

				if body.Snippet.PlaylistID != "PL_NEW" {
					t.Errorf("expected playlist PL_NEW, got %s", body.Snippet.PlaylistID)
				}
				if body.Snippet.ResourceID.Kind != "youtube#video" {
					t.Errorf("expected resource kind youtube#video, got %s", body.Snippet.ResourceID.Kind)
				}

				inserted = append(inserted, body.Snippet.ResourceID.VideoID)
				json.NewEncoder(w).Encode(map[string]any{"id": "item_" + body.Snippet.ResourceID.VideoID})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		writer := &YouTubePlaylistWriter{httpClient: server.Client(), baseURL: server.URL}
		if err := writer.Authenticate(context.Background(), &oauth2.Token{AccessToken: "tok123"}); err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}

		ref, err := writer.CreatePlaylist(context.Background(), "Road Trip", "converted playlist", true)
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if ref.ID != "PL_NEW" {
			t.Errorf("expected ref ID PL_NEW, got %s", ref.ID)
		}

		for _, vid := range []string{"vid1", "vid2"} {
			if err := writer.InsertItem(context.Background(), ref, vid); err != nil {
				t.Fatalf("failed to insert %s: %v", vid, err)
			}
		}

		if len(inserted) != 2 || inserted[0] != "vid1" || inserted[1] != "vid2" {
			t.Errorf("expected inserts [vid1 vid2], got %v", inserted)
		}
	})

	t.Run("classifies expired token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		writer := &YouTubePlaylistWriter{httpClient: server.Client(), baseURL: server.URL}
		writer.Authenticate(context.Background(), &oauth2.Token{AccessToken: "stale"})

		_, err := writer.CreatePlaylist(context.Background(), "Mix", "", true)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected auth expired error, got %v", err)
		}
	})
}
