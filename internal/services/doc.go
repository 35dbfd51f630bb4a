// Package services implements the external collaborators of the conversion
// pipeline.
//
// # Interfaces
//
// [SourceCatalog] reads playlist metadata and track listings from Spotify.
// [SearchCatalog] queries YouTube for candidate videos. [PlaylistWriter]
// creates playlists and inserts items on YouTube. [TokenProvider] supplies
// the OAuth token the writer needs, typically by driving a browser consent
// flow.
//
// # Spotify Implementation
//
// [SpotifyService] reads public playlists with the client credentials grant,
// so no user login is required on the source side. Track listings are walked
// page by page; entries the API returns with a null track object (local or
// unavailable items) are skipped.
//
// # YouTube Implementations
//
// [YouTubeSearchService] calls search.list with an API key and hydrates each
// result page with a videos.list call for durations, since search results
// carry no contentDetails. [YouTubePlaylistWriter] performs playlists.insert
// and playlistItems.insert with an OAuth bearer token.
//
// # Error Handling
//
// Services map HTTP failures onto the shared error taxonomy so callers can
// classify with errors.Is:
//   - [shared.ErrPlaylistNotFound] / [shared.ErrPlaylistPrivate] : source lookup failures
//   - [shared.ErrRateLimited] : 429 or an explicit rate limit reason
//   - [shared.ErrTransient] : network errors and 5xx responses
//   - [shared.ErrQuotaExceeded] : the destination rejected the call for quota
//   - [shared.ErrAuthExpired] / [shared.ErrNotAuthenticated] : token problems
//   - [shared.ErrInvalidItem] : the destination rejected a specific video
package services
