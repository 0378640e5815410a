// Package kpi derives the monitoring snapshot from the full broadcast
// history. The snapshot is rebuilt from scratch every run and owns no
// state of its own.
package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

// ratingCritical is the only rating the totals special-case. Every other
// value, known or not, is just another distribution bucket.
const ratingCritical = "critical"

// ratingDefault backfills records that carry no rating at all.
const ratingDefault = "normal"

type RepoSummary struct {
	Repo          string `json:"repo"`
	Module        string `json:"module"`
	LastTsUTC     string `json:"last_ts_utc"`
	DaysSinceLast *int   `json:"days_since_last"`
	LatestRating  string `json:"latest_rating"`
	Page          string `json:"page"`
}

type RatingDist struct {
	Counts      map[string]int `json:"counts"`
	PctCritical float64        `json:"pct_critical"`
}

type Totals struct {
	BroadcastsToday int `json:"broadcasts_today"`
	BroadcastsTotal int `json:"broadcasts_total"`
	CriticalTotal   int `json:"critical_total"`
}

// Snapshot is the KPI document persisted after each run.
type Snapshot struct {
	GeneratedUTC       string                `json:"generated_utc"`
	Today              string                `json:"today"`
	Repos              []RepoSummary         `json:"repos"`
	RatingDistribution map[string]RatingDist `json:"rating_distribution"`
	StaleRepos         []RepoSummary         `json:"stale_repos"`
	Totals             Totals                `json:"totals"`
}

// Compute derives the snapshot from history at the processing instant now.
// History may arrive in any order; repos are reported in first-seen order.
func Compute(history []broadcast.Record, now time.Time) *Snapshot {
	now = now.UTC()
	snap := &Snapshot{
		GeneratedUTC:       now.Format(broadcast.TimeLayout),
		Today:              now.Format("2006-01-02"),
		Repos:              []RepoSummary{},
		RatingDistribution: make(map[string]RatingDist),
		StaleRepos:         []RepoSummary{},
	}

	var order []string
	byRepo := make(map[string][]broadcast.Record)
	for _, rec := range history {
		if _, ok := byRepo[rec.Repo]; !ok {
			order = append(order, rec.Repo)
		}
		byRepo[rec.Repo] = append(byRepo[rec.Repo], rec)
	}

	for _, repo := range order {
		recs := byRepo[repo]
		latest := latestOf(recs)

		counts := make(map[string]int)
		for _, rec := range recs {
			counts[ratingOf(rec)]++
		}
		total := len(recs)
		if total == 0 {
			total = 1
		}
		pct := math.Round(100*100*float64(counts[ratingCritical])/float64(total)) / 100

		snap.Repos = append(snap.Repos, RepoSummary{
			Repo:          repo,
			Module:        latest.Module,
			LastTsUTC:     latest.TsUTC,
			DaysSinceLast: daysSince(now, latest.TsUTC),
			LatestRating:  ratingOf(latest),
			Page:          latest.Page(),
		})
		snap.RatingDistribution[repo] = RatingDist{Counts: counts, PctCritical: pct}
	}

	for _, r := range snap.Repos {
		if r.DaysSinceLast != nil {
			snap.StaleRepos = append(snap.StaleRepos, r)
		}
	}
	sort.SliceStable(snap.StaleRepos, func(i, j int) bool {
		return *snap.StaleRepos[i].DaysSinceLast > *snap.StaleRepos[j].DaysSinceLast
	})

	for _, rec := range history {
		if rec.Date == snap.Today {
			snap.Totals.BroadcastsToday++
		}
		if rec.Rating == ratingCritical {
			snap.Totals.CriticalTotal++
		}
	}
	snap.Totals.BroadcastsTotal = len(history)

	return snap
}

// latestOf picks the record with the maximum ts_utc; among equal
// timestamps the earliest-seen wins.
func latestOf(recs []broadcast.Record) broadcast.Record {
	latest := recs[0]
	for _, rec := range recs[1:] {
		if rec.TsUTC > latest.TsUTC {
			latest = rec
		}
	}
	return latest
}

func ratingOf(rec broadcast.Record) string {
	if rec.Rating == "" {
		return ratingDefault
	}
	return rec.Rating
}

// daysSince is the whole-day staleness of ts at instant now, nil when ts
// does not match the agreed timestamp shape.
func daysSince(now time.Time, ts string) *int {
	t, err := time.Parse(broadcast.TimeLayout, ts)
	if err != nil {
		return nil
	}
	days := int(math.Floor(now.Sub(t).Hours() / 24))
	return &days
}
