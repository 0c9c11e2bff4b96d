// Package store persists runs, per-stage events and the entities that
// survive the guardrails.
package store

import (
	"context"
	"time"

	"github.com/sells-group/enrich-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	Kind         model.RunKind   `json:"kind,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, kind model.RunKind, input int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stage events
	RecordStageEvent(ctx context.Context, ev model.StageEvent) error
	RecordStageEvents(ctx context.Context, evs []model.StageEvent) error
	ListStageEvents(ctx context.Context, runID string) ([]model.StageEvent, error)

	// Entities
	SaveCompany(ctx context.Context, runID string, c model.Company) (string, error)
	SaveLead(ctx context.Context, runID string, l model.Lead) (string, error)

	// Social profile cache
	GetCachedSocial(ctx context.Context, key string) ([]byte, error)
	SetCachedSocial(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeleteExpiredSocial(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
