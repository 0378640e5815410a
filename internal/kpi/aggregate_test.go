package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(broadcast.TimeLayout, "2025-09-20T00:00:00Z")
	require.NoError(t, err)
	return now
}

func TestCompute_DaysSinceLast(t *testing.T) {
	history := []broadcast.Record{
		{ID: "a", Repo: "archive", TsUTC: "2025-09-14T13:00:00Z"},
	}
	snap := Compute(history, fixedNow(t))
	require.Len(t, snap.Repos, 1)
	require.NotNil(t, snap.Repos[0].DaysSinceLast)
	require.Equal(t, 5, *snap.Repos[0].DaysSinceLast)
}

func TestCompute_UnparsableTimestampUndefined(t *testing.T) {
	history := []broadcast.Record{
		{ID: "a", Repo: "archive", TsUTC: "sometime yesterday"},
		{ID: "b", Repo: "gambler", TsUTC: ""},
	}
	snap := Compute(history, fixedNow(t))
	require.Len(t, snap.Repos, 2)
	for _, r := range snap.Repos {
		require.Nil(t, r.DaysSinceLast)
	}
	require.Empty(t, snap.StaleRepos)
}

func TestCompute_PctCritical(t *testing.T) {
	history := []broadcast.Record{
		{ID: "1", Repo: "archive", TsUTC: "2025-09-14T13:00:00Z", Rating: "critical"},
		{ID: "2", Repo: "archive", TsUTC: "2025-09-13T13:00:00Z", Rating: "normal"},
		{ID: "3", Repo: "archive", TsUTC: "2025-09-12T13:00:00Z", Rating: "critical"},
	}
	snap := Compute(history, fixedNow(t))
	dist := snap.RatingDistribution["archive"]
	require.Equal(t, 66.67, dist.PctCritical)
	require.Equal(t, map[string]int{"critical": 2, "normal": 1}, dist.Counts)
}

func TestCompute_MissingRatingCountsAsNormal(t *testing.T) {
	history := []broadcast.Record{
		{ID: "1", Repo: "archive", TsUTC: "2025-09-14T13:00:00Z"},
	}
	snap := Compute(history, fixedNow(t))
	require.Equal(t, map[string]int{"normal": 1}, snap.RatingDistribution["archive"].Counts)
	require.Equal(t, "normal", snap.Repos[0].LatestRating)
	require.Zero(t, snap.RatingDistribution["archive"].PctCritical)
}

func TestCompute_UnknownRatingIsJustAnotherBucket(t *testing.T) {
	history := []broadcast.Record{
		{ID: "1", Repo: "archive", TsUTC: "2025-09-14T13:00:00Z", Rating: "elevated"},
	}
	snap := Compute(history, fixedNow(t))
	require.Equal(t, map[string]int{"elevated": 1}, snap.RatingDistribution["archive"].Counts)
}

func TestCompute_LatestWinsPerRepo(t *testing.T) {
	history := []broadcast.Record{
		{ID: "old", Repo: "archive", TsUTC: "2025-09-10T00:00:00Z", Rating: "critical", Module: "The Archive"},
		{ID: "new", Repo: "archive", TsUTC: "2025-09-14T13:00:00Z", Rating: "normal", Module: "The Signal",
			Extra: map[string]any{"links": map[string]any{"page": "https://example.test/signal"}}},
	}
	snap := Compute(history, fixedNow(t))
	require.Len(t, snap.Repos, 1)
	r := snap.Repos[0]
	require.Equal(t, "2025-09-14T13:00:00Z", r.LastTsUTC)
	require.Equal(t, "normal", r.LatestRating)
	require.Equal(t, "The Signal", r.Module)
	require.Equal(t, "https://example.test/signal", r.Page)
}

func TestCompute_StaleRankingDescending(t *testing.T) {
	history := []broadcast.Record{
		{ID: "a", Repo: "fresh", TsUTC: "2025-09-19T00:00:00Z"},
		{ID: "b", Repo: "stale", TsUTC: "2025-09-01T00:00:00Z"},
		{ID: "c", Repo: "mid", TsUTC: "2025-09-10T00:00:00Z"},
	}
	snap := Compute(history, fixedNow(t))
	require.Len(t, snap.StaleRepos, 3)
	require.Equal(t, "stale", snap.StaleRepos[0].Repo)
	require.Equal(t, "mid", snap.StaleRepos[1].Repo)
	require.Equal(t, "fresh", snap.StaleRepos[2].Repo)
}

func TestCompute_Totals(t *testing.T) {
	history := []broadcast.Record{
		{ID: "1", Repo: "a", TsUTC: "2025-09-20T01:00:00Z", Date: "2025-09-20", Rating: "critical"},
		{ID: "2", Repo: "a", TsUTC: "2025-09-19T00:00:00Z", Date: "2025-09-19"},
		{ID: "3", Repo: "b", TsUTC: "2025-09-20T02:00:00Z", Date: "2025-09-20"},
	}
	snap := Compute(history, fixedNow(t))
	require.Equal(t, "2025-09-20", snap.Today)
	require.Equal(t, 2, snap.Totals.BroadcastsToday)
	require.Equal(t, 3, snap.Totals.BroadcastsTotal)
	require.Equal(t, 1, snap.Totals.CriticalTotal)
}

func TestCompute_EmptyHistory(t *testing.T) {
	snap := Compute(nil, fixedNow(t))
	require.Empty(t, snap.Repos)
	require.Empty(t, snap.StaleRepos)
	require.Empty(t, snap.RatingDistribution)
	require.Zero(t, snap.Totals.BroadcastsTotal)
	require.Equal(t, "2025-09-20T00:00:00Z", snap.GeneratedUTC)
}
