// Package tasks orchestrates the conversion of a Spotify playlist into a
// YouTube playlist with real-time progress reporting.
//
// # Phases
//
// [ConversionEngine.Run] drives one run through its phases:
//
//  1. Fetching : playlist metadata and the full ordered track listing are
//     pulled from the source catalog.
//  2. Matching : a bounded worker pool searches the destination for each
//     track, paced by a rate limiter. Results are scored and selected by the
//     match package and written by source index, so manifest order never
//     depends on query completion order. A failed query marks only its own
//     slot as query_failed.
//  3. AwaitingAuthorization : the engine blocks on [services.TokenProvider]
//     for a write token. Denial or cancellation fails the run, but the
//     manifest built in phase 2 is still returned.
//  4. Publishing : the playlist is created and matched items are inserted in
//     manifest order. Every write reserves quota units first; a refused
//     reservation halts publishing gracefully with the remaining items
//     marked skipped_quota. Transient failures are retried with doubling
//     capped backoff; other failures are recorded per item and the run
//     continues.
//
// Complete and Failed are terminal. The [ConversionResult] always carries
// the manifest once matching has produced one.
//
// # Progress Reporting
//
// All operations use non-blocking channel sends for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default
// to prevent blocking.
package tasks
