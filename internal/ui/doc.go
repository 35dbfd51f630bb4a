// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reviewing a conversion before it is published:
//  1. [MatchingView] : Watch the engine fetch the playlist and search candidates
//  2. [ReviewView] : Browse per-track matches with confidence scores, adjusting the acceptance threshold with +/-
//  3. [ConfirmView] : Confirm the accepted set
//  4. [PublishView] : Monitor authorization and playlist writes
//  5. [ResultView] : Display the run summary and destination playlist URL
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the conversion engine, providing non-blocking status reporting.
// Threshold adjustments reclassify the matched manifest in memory; no queries are re-issued.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
