package waterfall

import (
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Last-resort search endpoints.
const (
	EndpointSearch   = "search"
	EndpointNews     = "news"
	EndpointLocation = "location"
	EndpointResearch = "research"
)

// Config is the per-field priority table.
type Config struct {
	Defaults Defaults               `yaml:"defaults"`
	Fields   map[string]FieldConfig `yaml:"fields"`
}

// Defaults holds the table-wide fallbacks.
type Defaults struct {
	Sources  []string `yaml:"sources"`
	Fallback string   `yaml:"fallback"` // inserted lowest-but-one for searchable fields
}

// FieldConfig is the priority chain for one field.
type FieldConfig struct {
	Sources []string `yaml:"sources"`
	Search  string   `yaml:"search,omitempty"` // search, news, location, research or empty
}

// LoadConfig reads the priority table from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read config %s", path)
	}

	// The YAML has a top-level "waterfall" key
	var wrapper struct {
		Waterfall Config `yaml:"waterfall"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse config")
	}

	cfg := &wrapper.Waterfall
	if len(cfg.Defaults.Sources) == 0 {
		return nil, eris.New("waterfall: defaults.sources is required")
	}
	for key, fc := range cfg.Fields {
		switch fc.Search {
		case "", EndpointSearch, EndpointNews, EndpointLocation, EndpointResearch:
		default:
			return nil, eris.Errorf("waterfall: field %s: unknown search endpoint %q", key, fc.Search)
		}
		if len(fc.Sources) == 0 {
			fc.Sources = cfg.Defaults.Sources
		}
		cfg.Fields[key] = fc
	}

	return cfg, nil
}

// DefaultConfig returns the built-in table: profile enrichment beats
// key-based enrichment, which beats search results, which beat the primary
// record.
func DefaultConfig() *Config {
	base := []string{model.SourceEnrichLayer, model.SourceCoreSignal, model.SourceApollo}
	search := func(endpoint string) FieldConfig { return FieldConfig{Sources: base, Search: endpoint} }

	fields := make(map[string]FieldConfig, len(model.CompanyFields))
	for _, key := range model.CompanyFields {
		fields[key] = FieldConfig{Sources: base}
	}
	for _, key := range []string{
		model.FieldName, model.FieldDescription, model.FieldCompanyLinkedInURL, model.FieldLinkedInURL,
		model.FieldTwitterURL, model.FieldFacebookURL, model.FieldInstagramURL, model.FieldYouTubeURL, model.FieldGitHubURL,
	} {
		fields[key] = search(EndpointSearch)
	}
	fields[model.FieldDomain] = FieldConfig{
		Sources: []string{model.SourceEnrichLayer, model.SourceDiscovery, model.SourceCoreSignal, model.SourceApollo},
		Search:  EndpointSearch,
	}
	fields[model.FieldHeadquarters] = search(EndpointLocation)
	fields[model.FieldLocation] = search(EndpointLocation)
	fields[model.FieldRecentNews] = search(EndpointNews)
	for _, key := range []string{
		model.FieldJobOpenings, model.FieldGrowthSignals, model.FieldAIOrgSignals, model.FieldAITechSignals,
		model.FieldAIHiringSignals, model.FieldSignalEvidence, model.FieldTechSpend, model.FieldITBudget,
	} {
		fields[key] = search(EndpointResearch)
	}
	fields[model.FieldContacts] = FieldConfig{Sources: []string{model.SourceHunter}}
	fields[model.FieldEmailPattern] = FieldConfig{Sources: []string{model.SourceHunter}}

	return &Config{
		Defaults: Defaults{Sources: base, Fallback: model.SourceSerper},
		Fields:   fields,
	}
}

// GetFieldConfig returns the config for a field, falling back to defaults.
func (c *Config) GetFieldConfig(fieldKey string) FieldConfig {
	if fc, ok := c.Fields[fieldKey]; ok {
		return fc
	}
	return FieldConfig{Sources: c.Defaults.Sources}
}

// Priority returns the ordered source chain for a field. Fields with a
// last-resort search endpoint get the fallback source just above the
// lowest-priority entry, unless the table already places it.
func (c *Config) Priority(fieldKey string) []string {
	fc := c.GetFieldConfig(fieldKey)
	if fc.Search == "" || c.Defaults.Fallback == "" {
		return fc.Sources
	}
	return InsertFallback(fc.Sources, c.Defaults.Fallback)
}

// SearchEndpoint returns the last-resort endpoint for a field, or "".
func (c *Config) SearchEndpoint(fieldKey string) string {
	return c.GetFieldConfig(fieldKey).Search
}

// FieldKeys returns every field in the table, in model output order first.
func (c *Config) FieldKeys() []string {
	keys := make([]string, 0, len(c.Fields))
	for _, key := range model.CompanyFields {
		if _, ok := c.Fields[key]; ok {
			keys = append(keys, key)
		}
	}
	var extra []string
	for key := range c.Fields {
		if !slices.Contains(keys, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// InsertFallback returns a copy of order with source placed just above the
// last entry. A source already in order is left where it is.
func InsertFallback(order []string, source string) []string {
	if slices.Contains(order, source) {
		return order
	}
	out := make([]string, 0, len(order)+1)
	if len(order) == 0 {
		return append(out, source)
	}
	out = append(out, order[:len(order)-1]...)
	out = append(out, source, order[len(order)-1])
	return out
}
