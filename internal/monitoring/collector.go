// Package monitoring watches recent runs and raises webhook alerts when
// failure, guardrail-filter or cost thresholds are crossed.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Runs within the lookback window.
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	RunFailRate  float64 `json:"run_fail_rate"`
	CostUSD      float64 `json:"cost_usd"`
	ErrorCount   int     `json:"error_count"`

	// Entities produced by completed runs.
	EntitiesTotal    int            `json:"entities_total"`
	EntitiesPassed   int            `json:"entities_passed"`
	EntitiesFiltered int            `json:"entities_filtered"`
	FilterRate       float64        `json:"filter_rate"`
	RulesFailed      map[string]int `json:"rules_failed,omitempty"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of the store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run store.
type Collector struct {
	runs RunLister
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs}
}

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
		RulesFailed:   make(map[string]int),
	}

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusRunning:
			snap.RunsRunning++
		}
		if r.Summary == nil {
			continue
		}
		for _, usd := range r.Summary.Cost {
			snap.CostUSD += usd
		}
		snap.ErrorCount += len(r.Summary.Errors)
		snap.EntitiesTotal += r.Summary.Stats.Total
		snap.EntitiesPassed += r.Summary.Stats.Passed
		snap.EntitiesFiltered += r.Summary.Stats.Filtered
		for rule, n := range r.Summary.Stats.RulesFailed {
			snap.RulesFailed[rule] += n
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.EntitiesTotal > 0 {
		snap.FilterRate = float64(snap.EntitiesFiltered) / float64(snap.EntitiesTotal)
	}
	return snap, nil
}
