package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

const defaultEventBatch = 50

// EventSink buffers stage events and writes them to a Store in batches.
// It is safe for concurrent use.
type EventSink struct {
	store Store
	size  int

	mu  sync.Mutex
	buf []model.StageEvent
}

// NewEventSink creates a sink that flushes every size events. A size of
// zero or less uses the default batch size.
func NewEventSink(s Store, size int) *EventSink {
	if size <= 0 {
		size = defaultEventBatch
	}
	return &EventSink{store: s, size: size}
}

// Record buffers ev and flushes once the batch is full. Write failures are
// logged and the batch is dropped; event persistence never fails a run.
func (e *EventSink) Record(ctx context.Context, ev model.StageEvent) {
	e.mu.Lock()
	e.buf = append(e.buf, ev)
	var batch []model.StageEvent
	if len(e.buf) >= e.size {
		batch = e.buf
		e.buf = nil
	}
	e.mu.Unlock()

	if batch != nil {
		e.write(ctx, batch)
	}
}

// Flush writes any buffered events.
func (e *EventSink) Flush(ctx context.Context) error {
	e.mu.Lock()
	batch := e.buf
	e.buf = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return e.store.RecordStageEvents(ctx, batch)
}

func (e *EventSink) write(ctx context.Context, batch []model.StageEvent) {
	if err := e.store.RecordStageEvents(ctx, batch); err != nil {
		zap.L().Warn("store: dropped stage events",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
	}
}
