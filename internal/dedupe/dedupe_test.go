package dedupe

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestLeads_CaseInsensitiveEmail(t *testing.T) {
	leads := []model.Lead{
		{FirstName: "Jane", LastName: "Doe", Email: "Jane@Acme.com", Title: "CTO"},
		{FirstName: "Jane", LastName: "Doe", Email: "jane@acme.com", Title: "VP"},
	}
	out := Leads(leads)
	require.Len(t, out, 1)
	assert.Equal(t, "CTO", out[0].Title)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name        string
		input       []model.Lead
		wantTitles  []string
		wantReasons []string
	}{
		{
			name:       "empty",
			input:      nil,
			wantTitles: nil,
		},
		{
			name: "provider id duplicate",
			input: []model.Lead{
				{Title: "a", ProviderID: "p1"},
				{Title: "b", ProviderID: "p1", Email: "other@acme.com"},
			},
			wantTitles:  []string{"a"},
			wantReasons: []string{ReasonDuplicateProviderID},
		},
		{
			name: "email checked before provider id",
			input: []model.Lead{
				{Title: "a", Email: "x@acme.com", ProviderID: "p1"},
				{Title: "b", Email: "X@acme.com", ProviderID: "p1"},
			},
			wantTitles:  []string{"a"},
			wantReasons: []string{ReasonDuplicateEmail},
		},
		{
			name: "keyless entities are kept",
			input: []model.Lead{
				{Title: "a"},
				{Title: "b"},
			},
			wantTitles: []string{"a", "b"},
		},
		{
			name: "dropped keys are not registered",
			input: []model.Lead{
				{Title: "a", Email: "x@acme.com"},
				{Title: "b", Email: "x@acme.com", ProviderID: "p2"},
				{Title: "c", ProviderID: "p2"},
			},
			wantTitles:  []string{"a", "c"},
			wantReasons: []string{ReasonDuplicateEmail},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dropped := Merge(tt.input, LeadKeys)
			var titles []string
			for _, l := range out {
				titles = append(titles, l.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)

			var reasons []string
			for _, d := range dropped {
				reasons = append(reasons, d.Reason)
			}
			assert.Equal(t, tt.wantReasons, reasons)
		})
	}
}

func TestCompanies(t *testing.T) {
	out := Companies([]model.Company{
		{Name: "Acme", Domain: "acme.com"},
		{Name: "Acme Inc", Domain: "ACME.com"},
		{Name: "Globex", OrganizationID: "o1"},
		{Name: "Globex Corp", ID: "o1"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "Acme", out[0].Name)
	assert.Equal(t, "Globex", out[1].Name)
}

func TestMerge_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	emails := gen.SliceOf(gen.OneConstOf("a@x.com", "A@x.com", "b@x.com", "", "c@x.com"), reflect.TypeOf(""))

	properties.Property("output emails are unique ignoring case", prop.ForAll(
		func(in []string) bool {
			out, _ := Merge(in, func(e string) Keys { return Keys{Email: e} })
			seen := map[string]bool{}
			for _, e := range out {
				k := strings.ToLower(e)
				if k != "" && seen[k] {
					return false
				}
				seen[k] = true
			}
			return true
		},
		emails,
	))

	properties.Property("kept plus dropped equals input", prop.ForAll(
		func(in []string) bool {
			out, dropped := Merge(in, func(e string) Keys { return Keys{Email: e} })
			return len(out)+len(dropped) == len(in)
		},
		emails,
	))

	properties.Property("merge is idempotent", prop.ForAll(
		func(in []string) bool {
			keys := func(e string) Keys { return Keys{Email: e} }
			once, _ := Merge(in, keys)
			twice, _ := Merge(once, keys)
			return assert.ObjectsAreEqual(once, twice)
		},
		emails,
	))

	properties.TestingRun(t)
}
