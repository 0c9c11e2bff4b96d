package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/internal/model"
)

// FormatReport renders a human-readable summary of one company run.
func FormatReport(res *CompanyResult, ledger []cost.Entry) string {
	var b strings.Builder

	c := res.Company
	name := c.Name
	if name == "" {
		name = c.Domain
	}
	fmt.Fprintf(&b, "# Enrichment Report: %s\n", name)
	fmt.Fprintf(&b, "Domain: %s\n", orNA(c.Domain))
	if res.Discovery != nil {
		fmt.Fprintf(&b, "Domain discovered by %s (confidence %d)\n",
			res.Discovery.StrategyName, res.Discovery.Confidence)
	}
	b.WriteString("\n")

	snap := c.Snapshot()
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Fields populated: %d of %d\n", len(snap), len(model.CompanyFields))
	if res.Resolution != nil {
		fmt.Fprintf(&b, "- Fields resolved by waterfall: %d of %d\n",
			res.Resolution.FieldsResolved, res.Resolution.FieldsTotal)
	}
	fmt.Fprintf(&b, "- Contacts: %d\n\n", len(c.Contacts))

	b.WriteString("## Stages\n")
	for _, s := range res.Stages {
		fmt.Fprintf(&b, "- %s: %s (%dms)", s.Name, s.Status, s.Duration)
		if len(s.FieldsChanged) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(s.FieldsChanged, ", "))
		}
		b.WriteString("\n")
		switch {
		case s.Reason != "":
			fmt.Fprintf(&b, "  Reason: %s\n", s.Reason)
		case s.Error != "":
			fmt.Fprintf(&b, "  Error: %s\n", s.Error)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Fields\n")
	for _, key := range model.CompanyFields {
		v, ok := snap[key]
		if !ok || key == model.FieldContacts {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", key, formatValue(v), c.Provenance.Source(key))
	}

	if len(ledger) > 0 {
		b.WriteString("\n## Provider Calls\n")
		sorted := append([]cost.Entry(nil), ledger...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].USD > sorted[j].USD })
		var total float64
		for _, e := range sorted {
			fmt.Fprintf(&b, "- %s/%s: %d calls (%d failed), $%.4f\n",
				e.Provider, e.CallType, e.Calls, e.Failed, e.USD)
			total += e.USD
		}
		fmt.Fprintf(&b, "- Total: $%.4f\n", total)
	}

	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
