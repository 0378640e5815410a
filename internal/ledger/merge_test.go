package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

func rec(id, ts string) broadcast.Record {
	return broadcast.Record{ID: id, TsUTC: ts}
}

func TestMerge_AppendsNewRecords(t *testing.T) {
	prev := []broadcast.Record{rec("a", "2025-09-01T00:00:00Z")}
	merged, appended := Merge(prev, []broadcast.Record{rec("b", "2025-09-02T00:00:00Z")})
	require.Len(t, merged, 2)
	require.Len(t, appended, 1)
	require.Equal(t, "b", appended[0].ID)
}

func TestMerge_DedupAgainstLedger(t *testing.T) {
	prev := []broadcast.Record{rec("a", "2025-09-01T00:00:00Z")}
	merged, appended := Merge(prev, []broadcast.Record{rec("a", "2025-09-01T00:00:00Z")})
	require.Len(t, merged, 1)
	require.Empty(t, appended)
}

func TestMerge_DedupWithinSweep(t *testing.T) {
	cands := []broadcast.Record{
		rec("x", "2025-09-01T00:00:00Z"),
		rec("x", "2025-09-01T00:00:00Z"),
	}
	merged, appended := Merge(nil, cands)
	require.Len(t, merged, 1)
	require.Len(t, appended, 1)
}

func TestMerge_Idempotent(t *testing.T) {
	cands := []broadcast.Record{rec("a", ""), rec("b", "")}
	once, _ := Merge(nil, cands)
	twice, appended := Merge(once, cands)
	require.Equal(t, once, twice)
	require.Empty(t, appended)
}

func TestMerge_NeverShrinksOrReorders(t *testing.T) {
	prev := []broadcast.Record{rec("c", "3"), rec("a", "1"), rec("b", "2")}
	merged, _ := Merge(prev, []broadcast.Record{rec("d", "4")})
	require.GreaterOrEqual(t, len(merged), len(prev))
	require.Equal(t, prev, merged[:len(prev)])
}

func TestMerge_DoesNotMutatePrev(t *testing.T) {
	prev := make([]broadcast.Record, 0, 4)
	prev = append(prev, rec("a", "1"))
	snapshot := append([]broadcast.Record(nil), prev...)
	_, _ = Merge(prev, []broadcast.Record{rec("b", "2")})
	require.Equal(t, snapshot, prev)
}

func TestSortedByTime_NewestFirstEmptyLast(t *testing.T) {
	history := []broadcast.Record{
		rec("old", "2025-09-01T00:00:00Z"),
		rec("none", ""),
		rec("new", "2025-09-15T00:00:00Z"),
	}
	sorted := SortedByTime(history)
	require.Equal(t, []string{"new", "old", "none"},
		[]string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	// the input keeps its order
	require.Equal(t, "old", history[0].ID)
}

func TestSortedByTime_StableTies(t *testing.T) {
	history := []broadcast.Record{
		rec("first", "2025-09-01T00:00:00Z"),
		rec("second", "2025-09-01T00:00:00Z"),
	}
	sorted := SortedByTime(history)
	require.Equal(t, "first", sorted[0].ID)
	require.Equal(t, "second", sorted[1].ID)
}
