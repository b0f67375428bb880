// Package history fetches the detection history and reconciles it into the
// dashboard's statistics and activity timeline.
package history

import (
	"context"
	"strings"
	"sync"

	"github.com/fakeyudi/cropscan/internal/api"
)

// timelineFallbackSize is how many recent records stand in for the activity
// timeline when the server omits one.
const timelineFallbackSize = 5

// Fetcher is the remote surface the aggregator needs. *api.Client satisfies it.
type Fetcher interface {
	History(ctx context.Context) (api.HistoryReport, error)
}

// Stats is the aggregate health summary shown on the dashboard.
type Stats struct {
	TotalDetections int
	HealthyCount    int
	DiseasedCount   int
}

// Snapshot is the published state of one committed refresh. Records keep the
// server's most-recent-first order untouched.
type Snapshot struct {
	Records  []api.HistoryRecord
	Stats    Stats
	Timeline []api.ActivityItem
	HasData  bool // false until the first successful refresh commits
}

// Aggregator owns the history snapshot. Refresh may be called repeatedly and
// concurrently with itself; each successful fetch replaces the snapshot
// wholesale, so the most recently completed response wins.
type Aggregator struct {
	svc Fetcher

	mu   sync.Mutex
	snap Snapshot
}

// NewAggregator returns an Aggregator with an empty snapshot.
func NewAggregator(svc Fetcher) *Aggregator {
	return &Aggregator{svc: svc}
}

// Refresh fetches history, statistics and timeline in one request and commits
// a freshly derived snapshot. On failure the previous snapshot stays in place:
// stale-but-present data beats a blank dashboard.
func (a *Aggregator) Refresh(ctx context.Context) error {
	report, err := a.svc.History(ctx)
	if err != nil {
		return err
	}

	snap := Snapshot{
		Records:  report.History,
		Stats:    deriveStats(report),
		Timeline: deriveTimeline(report),
		HasData:  true,
	}

	a.mu.Lock()
	a.snap = snap
	a.mu.Unlock()
	return nil
}

// Snapshot returns the most recently committed state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}

// IsHealthyLabel classifies a disease label: healthy iff its lowercase form
// contains the token "healthy".
func IsHealthyLabel(label string) bool {
	return strings.Contains(strings.ToLower(label), "healthy")
}

// deriveStats prefers the server's precomputed statistics; they are
// authoritative when present and never reconciled against the raw list.
func deriveStats(report api.HistoryReport) Stats {
	if s := report.Statistics; s != nil {
		return Stats{
			TotalDetections: s.TotalScans,
			HealthyCount:    s.HealthyPlants,
			DiseasedCount:   s.DiseasedPlants,
		}
	}
	return ComputeStats(report.History)
}

// ComputeStats is the fallback derivation from the raw record list.
// TotalDetections == HealthyCount + DiseasedCount always holds.
func ComputeStats(records []api.HistoryRecord) Stats {
	healthy := 0
	for _, r := range records {
		if IsHealthyLabel(r.Disease) {
			healthy++
		}
	}
	return Stats{
		TotalDetections: len(records),
		HealthyCount:    healthy,
		DiseasedCount:   len(records) - healthy,
	}
}

// deriveTimeline uses the server's timeline when present, else coerces the
// five most recent records into detection activities.
func deriveTimeline(report api.HistoryReport) []api.ActivityItem {
	if len(report.ActivityTimeline) > 0 {
		return report.ActivityTimeline
	}

	n := len(report.History)
	if n > timelineFallbackSize {
		n = timelineFallbackSize
	}
	items := make([]api.ActivityItem, 0, n)
	for _, r := range report.History[:n] {
		items = append(items, api.ActivityItem{
			ID:         r.ID,
			Type:       "detection",
			Crop:       r.Crop,
			Disease:    r.Disease,
			Confidence: r.Confidence,
			Timestamp:  r.Timestamp,
		})
	}
	return items
}
