// Package match implements the scoring core of the conversion pipeline:
// string normalization, candidate scoring, and best-candidate selection.
// Everything here is pure; no I/O, no clocks.
package match
