package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

// Stage names, in company pipeline order.
const (
	StageApollo          = "apollo"
	StageEnrichLayer     = "enrichlayer"
	StageDomainDiscovery = "domain_discovery"
	StageCoreSignal      = "coresignal"
	StageHunter          = "hunter"
	StageResolve         = "resolve"
	StageSerperFields    = "serper_fields"
	StageSerperSocial    = "serper_social"
	StageSerperResearch  = "serper_research"
)

// Lead pipeline stage names.
const (
	StageLeadVerify  = "email_verify"
	StageLeadSearch  = "profile_search"
	StageLeadSocial  = "social"
	StageLeadPersona = "persona"
)

// stageFunc does one stage's work and returns the fields it changed.
type stageFunc func(ctx context.Context, rc *RunContext) ([]string, error)

// skipError marks an unmet stage precondition.
type skipError struct {
	reason string
}

func (e *skipError) Error() string { return "skipped: " + e.reason }

func skip(reason string) error {
	return &skipError{reason: reason}
}

// runStage executes fn, converting every outcome into a StageResult. A
// missing credential or unmet precondition is a skip, a panic is a failure,
// and nothing propagates to the caller.
func runStage(ctx context.Context, rc *RunContext, name string, fn stageFunc) (res model.StageResult) {
	start := time.Now()
	res.Name = name
	log := rc.Log.With(zap.String("stage", name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: stage panicked", zap.Any("panic", r))
			res.Status = model.StageStatusFailed
			res.FieldsChanged = nil
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.Duration = time.Since(start).Milliseconds()
		rc.finish(ctx, res)
	}()

	changed, err := fn(ctx, rc)
	res.FieldsChanged = changed

	var se *skipError
	switch kind := resilience.Classify(err); {
	case err == nil:
		res.Status = model.StageStatusComplete
	case errors.As(err, &se):
		res.Status = model.StageStatusSkipped
		res.Reason = se.reason
	case kind == resilience.KindConfiguration:
		res.Status = model.StageStatusSkipped
		res.Reason = "not configured"
	case kind == resilience.KindParse:
		log.Warn("pipeline: unexpected provider payload", zap.Error(err))
		res.Status = model.StageStatusFailed
		res.Error = err.Error()
	default:
		log.Warn("pipeline: stage returned nothing",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		res.Status = model.StageStatusFailed
		res.Error = err.Error()
	}
	return res
}
