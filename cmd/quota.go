package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"tuneshift/internal/quota"
)

// QuotaShow prints the configured daily budget and per-call unit costs.
//
// How far a run gets depends on the write budget: creating the playlist and
// each inserted track both spend units, so a conversion of n matched tracks
// needs roughly 50*(n+1) units.
func (r *Runner) QuotaShow(ctx context.Context, cmd *cli.Command) error {
	used, limit := r.budget.Snapshot()

	r.writePlain("Daily budget: %d units\n", limit)
	if used > 0 {
		r.writePlain("Used this run: %d units\n", used)
	}

	r.writePlain("\nPer-call costs:\n")
	for _, op := range []quota.Op{quota.OpSearch, quota.OpPlaylistInsert, quota.OpPlaylistItemInsert, quota.OpVideoList} {
		r.writePlain("  %-22s %d\n", op, quota.Cost(op))
	}

	r.writePlain("\nSearches use the API key's read path and do not draw on the write budget.\n")

	return nil
}
