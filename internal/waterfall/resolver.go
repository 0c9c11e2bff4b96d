package waterfall

import (
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Candidate is one source's value for a field.
type Candidate struct {
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// FieldResolution is the audit record for one field.
type FieldResolution struct {
	FieldKey string      `json:"field_key"`
	Resolved bool        `json:"resolved"`
	Winner   *Candidate  `json:"winner,omitempty"`
	Attempts []Candidate `json:"attempts"`
}

// Result is the outcome of resolving every field of one entity.
type Result struct {
	Resolutions    map[string]FieldResolution `json:"resolutions"`
	FieldsResolved int                        `json:"fields_resolved"`
	FieldsTotal    int                        `json:"fields_total"`
}

// Pick returns the first non-null candidate and its source, or (nil, "")
// when every candidate is null. Candidates must already be in priority order.
func Pick(field string, candidates []Candidate) (any, string) {
	i := firstNonNull(candidates)
	if i < 0 {
		return nil, ""
	}
	zap.L().Debug("waterfall: field resolved",
		zap.String("field", field),
		zap.String("source", candidates[i].Source),
	)
	return candidates[i].Value, candidates[i].Source
}

// Apply walks candidates in priority order and writes the first one the
// company accepts. A non-null value that does not convert to the field's
// type is passed over in favour of the next source. It returns the winner,
// or nil when no candidate was written.
func Apply(c *model.Company, field string, candidates []Candidate) *Candidate {
	for rest := candidates; len(rest) > 0; {
		i := firstNonNull(rest)
		if i < 0 {
			return nil
		}
		cand := rest[i]
		if c.SetField(field, cand.Value, cand.Source) {
			zap.L().Debug("waterfall: field resolved",
				zap.String("field", field),
				zap.String("source", cand.Source),
			)
			return &cand
		}
		zap.L().Debug("waterfall: candidate rejected",
			zap.String("field", field),
			zap.String("source", cand.Source),
		)
		rest = rest[i+1:]
	}
	return nil
}

func firstNonNull(candidates []Candidate) int {
	for i, c := range candidates {
		if !model.IsNull(c.Value) {
			return i
		}
	}
	return -1
}

// Resolver applies the priority table to a set of source records.
type Resolver struct {
	cfg *Config
}

// NewResolver creates a resolver. A nil cfg uses DefaultConfig.
func NewResolver(cfg *Config) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Resolver{cfg: cfg}
}

// Config returns the priority table in use.
func (r *Resolver) Config() *Config {
	return r.cfg
}

// Candidates builds the ordered candidate list for a field. Failed records
// and sources absent from the field's chain contribute nothing; several
// records from one source keep their arrival order.
func (r *Resolver) Candidates(field string, records []model.SourceRecord) []Candidate {
	var out []Candidate
	for _, source := range r.cfg.Priority(field) {
		for _, rec := range records {
			if rec.Source != source {
				continue
			}
			if v := rec.Value(field); v != nil {
				out = append(out, Candidate{Value: v, Source: source})
			}
		}
	}
	return out
}

// Resolve picks a value for every field in the table and writes winners onto
// the company. Fields listed in locked are left untouched, and a winner never
// replaces a populated field with a different source's null.
func (r *Resolver) Resolve(c *model.Company, records []model.SourceRecord, locked map[string]bool) *Result {
	res := &Result{Resolutions: make(map[string]FieldResolution)}
	for _, field := range r.cfg.FieldKeys() {
		if locked[field] {
			continue
		}
		res.FieldsTotal++

		attempts := r.Candidates(field, records)
		fr := FieldResolution{FieldKey: field, Attempts: attempts}
		if winner := Apply(c, field, attempts); winner != nil {
			fr.Resolved = true
			fr.Winner = winner
			res.FieldsResolved++
		} else if !model.IsNull(c.Field(field)) {
			fr.Resolved = true
		}
		res.Resolutions[field] = fr
	}
	return res
}

// Missing returns the fields still empty on c that have a last-resort
// search endpoint, grouped by endpoint.
func (r *Resolver) Missing(c *model.Company) map[string][]string {
	out := make(map[string][]string)
	for _, field := range r.cfg.FieldKeys() {
		endpoint := r.cfg.SearchEndpoint(field)
		if endpoint == "" || !model.IsNull(c.Field(field)) {
			continue
		}
		out[endpoint] = append(out[endpoint], field)
	}
	return out
}
