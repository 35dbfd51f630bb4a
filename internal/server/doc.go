// Package server provides the localhost HTTP plumbing for the YouTube
// OAuth consent flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Consent Callback
//
// [CallbackHandler] implements the OAuth2 authorization code callback.
// It validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel.
// Only one callback is processed per flow to prevent replay.
//
// # Consent Flow
//
// [ConsentFlow] ties it together for the CLI: it serves a persisted token
// while valid, refreshes through the token's refresh grant, and otherwise
// starts a temporary server on the configured host and port, opens the
// user's browser at the consent URL, and waits for the single callback.
// Acquired tokens are written back to the config file.
package server
