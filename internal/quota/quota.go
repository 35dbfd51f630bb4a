// Package quota tracks YouTube Data API unit spend for one process run.
// Reservations are atomic check-and-increment: a reservation that would
// overshoot the budget is refused and spends nothing.
package quota

import "sync"

// Op identifies a metered API operation.
type Op int

const (
	OpSearch Op = iota
	OpPlaylistInsert
	OpPlaylistItemInsert
	OpVideoList
)

// Unit costs per https://developers.google.com/youtube/v3/determine_quota_cost
var costs = map[Op]int{
	OpSearch:             100,
	OpPlaylistInsert:     50,
	OpPlaylistItemInsert: 50,
	OpVideoList:          1,
}

// DefaultDailyLimit is the standard daily allotment for a YouTube API project.
const DefaultDailyLimit = 10000

func (o Op) String() string {
	switch o {
	case OpSearch:
		return "search.list"
	case OpPlaylistInsert:
		return "playlists.insert"
	case OpPlaylistItemInsert:
		return "playlistItems.insert"
	case OpVideoList:
		return "videos.list"
	default:
		return "unknown"
	}
}

// Cost returns the unit cost of an operation.
func Cost(op Op) int {
	return costs[op]
}

// Budget meters unit spend against a fixed limit. Safe for concurrent use.
// State lives for the process only; nothing is persisted across runs.
type Budget struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewBudget creates a budget with the given unit limit. A non-positive limit
// falls back to DefaultDailyLimit.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Budget{limit: limit}
}

// Reserve attempts to spend the units for op. It returns false, spending
// nothing, when the cost would push usage past the limit.
func (b *Budget) Reserve(op Op) bool {
	cost := costs[op]

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used+cost > b.limit {
		return false
	}
	b.used += cost
	return true
}

// Remaining reports the units still available.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit - b.used
}

// Snapshot reports the current usage.
func (b *Budget) Snapshot() (used, limit int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used, b.limit
}
