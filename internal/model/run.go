package model

import "time"

// RunStatus represents the current state of a batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunKind distinguishes company runs from lead runs.
type RunKind string

const (
	RunKindCompanies RunKind = "companies"
	RunKindLeads     RunKind = "leads"
)

// Run is one batch invocation.
type Run struct {
	ID        string      `json:"id"`
	Kind      RunKind     `json:"kind"`
	Status    RunStatus   `json:"status"`
	Input     int         `json:"input"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary is stored on a run once it completes.
type RunSummary struct {
	Stats    ValidationStats    `json:"stats"`
	Errors   []string           `json:"errors,omitempty"`
	Cost     map[string]float64 `json:"cost_usd,omitempty"`
	Calls    map[string]int     `json:"calls,omitempty"`
	Duration int64              `json:"duration_ms"`
}

// StageStatus represents the outcome of a pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult holds the outcome of one stage for one entity.
type StageResult struct {
	Name          string      `json:"name"`
	Status        StageStatus `json:"status"`
	Duration      int64       `json:"duration_ms"`
	FieldsChanged []string    `json:"fields_changed,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// Succeeded reports whether the stage ran to completion.
func (r StageResult) Succeeded() bool {
	return r.Status == StageStatusComplete
}

// StageEvent is the structured record emitted once per stage per entity.
type StageEvent struct {
	RunID         string    `json:"run_id,omitempty"`
	EntityID      string    `json:"entity_id"`
	Stage         string    `json:"stage"`
	Success       bool      `json:"success"`
	Skipped       bool      `json:"skipped,omitempty"`
	FieldsChanged []string  `json:"fields_changed,omitempty"`
	Error         string    `json:"error,omitempty"`
	At            time.Time `json:"at"`
}
