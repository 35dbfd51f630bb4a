// Package repositories implements SQLite persistence for the thumbnail cache.
//
// Key Implementations:
//   - [ThumbnailRepository] : byte cache keyed by remote thumbnail ID
//   - [ThumbnailCache] : download-through memoization over the repository
//
// The cache is pure memoization: a stored entry is exactly the bytes the
// remote served, and a miss simply downloads again. Nothing else in the
// pipeline depends on it being populated.
package repositories
