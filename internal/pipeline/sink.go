package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// EventSink receives one event per stage per entity. Implementations must be
// safe for concurrent use; Record never fails the caller.
type EventSink interface {
	Record(ctx context.Context, ev model.StageEvent)
}

// ZapSink writes each stage event as a structured log line.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink creates a sink on log, or on the global logger when log is nil.
func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.L()
	}
	return &ZapSink{log: log}
}

// Record implements EventSink.
func (s *ZapSink) Record(_ context.Context, ev model.StageEvent) {
	fields := []zap.Field{
		zap.String("entity_id", ev.EntityID),
		zap.String("stage", ev.Stage),
		zap.Bool("success", ev.Success),
		zap.Strings("fields_changed", ev.FieldsChanged),
	}
	if ev.RunID != "" {
		fields = append(fields, zap.String("run_id", ev.RunID))
	}

	switch {
	case ev.Skipped:
		s.log.Debug("pipeline: stage skipped", append(fields, zap.String("reason", ev.Error))...)
	case ev.Error != "":
		s.log.Warn("pipeline: stage failed", append(fields, zap.String("error", ev.Error))...)
	default:
		s.log.Info("pipeline: stage complete", fields...)
	}
}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

// NewMultiSink drops nil sinks.
func NewMultiSink(sinks ...EventSink) MultiSink {
	out := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Record implements EventSink.
func (m MultiSink) Record(ctx context.Context, ev model.StageEvent) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}

// Flush flushes every member sink that buffers events.
func (m MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if f, ok := s.(flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

type flusher interface {
	Flush(ctx context.Context) error
}
