package pipeline

import (
	"context"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// RunContext is the per-entity state threaded through every stage call. It
// is owned by one goroutine for the life of the entity.
type RunContext struct {
	RunID    string
	EntityID string
	Log      *zap.Logger

	sink    EventSink
	now     func() time.Time
	records []model.SourceRecord
	locked  map[string]bool
	stages  []model.StageResult
}

// NewRunContext creates the context for one entity. A nil sink discards
// events.
func NewRunContext(runID, entityID string, log *zap.Logger, sink EventSink) *RunContext {
	if log == nil {
		log = zap.L()
	}
	return &RunContext{
		RunID:    runID,
		EntityID: entityID,
		Log:      log.With(zap.String("entity_id", entityID)),
		sink:     sink,
		now:      time.Now,
		locked:   make(map[string]bool),
	}
}

// AddRecord appends a provider record.
func (rc *RunContext) AddRecord(rec model.SourceRecord) {
	rc.records = append(rc.records, rec)
}

// Records returns the provider records gathered so far.
func (rc *RunContext) Records() []model.SourceRecord {
	return rc.records
}

// Lock marks a field as settled; resolution leaves locked fields alone.
func (rc *RunContext) Lock(field string) {
	rc.locked[field] = true
}

// Locked returns a copy of the locked field set.
func (rc *RunContext) Locked() map[string]bool {
	return maps.Clone(rc.locked)
}

// Stages returns the stage log in execution order.
func (rc *RunContext) Stages() []model.StageResult {
	return rc.stages
}

// finish appends a stage result and emits its event.
func (rc *RunContext) finish(ctx context.Context, res model.StageResult) {
	rc.stages = append(rc.stages, res)
	if rc.sink == nil {
		return
	}

	ev := model.StageEvent{
		RunID:         rc.RunID,
		EntityID:      rc.EntityID,
		Stage:         res.Name,
		Success:       res.Succeeded(),
		Skipped:       res.Status == model.StageStatusSkipped,
		FieldsChanged: res.FieldsChanged,
		Error:         res.Error,
		At:            rc.now(),
	}
	if ev.Skipped {
		ev.Error = res.Reason
	}
	rc.sink.Record(ctx, ev)
}
