// Package ledger maintains the append-only broadcast history.
package ledger

import (
	"sort"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

// Merge appends to prev exactly those candidates whose id is not already
// present, in prev or earlier in the same sweep. prev is never reordered,
// mutated or shrunk. Calling Merge again with the same candidates is a
// no-op, which is what makes re-ingestion of remote state safe.
func Merge(prev, candidates []broadcast.Record) (merged, appended []broadcast.Record) {
	seen := make(map[string]struct{}, len(prev))
	for _, r := range prev {
		if r.ID != "" {
			seen[r.ID] = struct{}{}
		}
	}

	merged = make([]broadcast.Record, len(prev), len(prev)+len(candidates))
	copy(merged, prev)

	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		merged = append(merged, c)
		appended = append(appended, c)
	}
	return merged, appended
}

// SortedByTime returns the presentation copy: newest first by ts_utc,
// compared as strings so a missing timestamp sorts last. Ties keep their
// ledger order.
func SortedByTime(history []broadcast.Record) []broadcast.Record {
	out := make([]broadcast.Record, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TsUTC > out[j].TsUTC
	})
	return out
}
