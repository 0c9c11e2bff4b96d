package model

import "time"

// Source names used in provenance and the priority table.
const (
	SourceApollo      = "apollo"
	SourceEnrichLayer = "enrichlayer"
	SourceCoreSignal  = "coresignal"
	SourceHunter      = "hunter"
	SourceSerper      = "serper"
	SourceDiscovery   = "domain_discovery"
)

// SourceRecord is one provider's partial view of an entity. Records are
// never merged directly; they only feed candidates to the field resolver.
type SourceRecord struct {
	Source    string         `json:"source"`
	Success   bool           `json:"success"`
	Fields    map[string]any `json:"fields,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NewSourceRecord creates a successful record, dropping null values.
func NewSourceRecord(source string, fields map[string]any, at time.Time) SourceRecord {
	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if !IsNull(v) {
			clean[k] = v
		}
	}
	return SourceRecord{Source: source, Success: true, Fields: clean, FetchedAt: at}
}

// Value returns the record's value for field, or nil when the record failed
// or has no value.
func (r SourceRecord) Value(field string) any {
	if !r.Success || r.Fields == nil {
		return nil
	}
	return r.Fields[field]
}

// DomainDiscoveryResult is the outcome of a successful key discovery.
type DomainDiscoveryResult struct {
	Key          string `json:"key"`
	StrategyName string `json:"strategy_name"`
	Confidence   int    `json:"confidence"`
}
