// Package dedupe drops entities that describe the same subject. The first
// entity seen for a key wins and input order is preserved.
package dedupe

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Reasons recorded for dropped entities.
const (
	ReasonDuplicateEmail      = "duplicate_email"
	ReasonDuplicateProviderID = "duplicate_provider_id"
)

// Keys are an entity's identity keys. Empty keys are ignored.
type Keys struct {
	Email      string
	ProviderID string
}

// Dropped describes an entity removed as a duplicate.
type Dropped struct {
	Index  int
	Key    string
	Reason string
}

// Merge keeps the first entity for each key, checking the lowercased email
// before the provider ID. Keys of dropped entities are not registered.
func Merge[T any](items []T, keys func(T) Keys) ([]T, []Dropped) {
	if len(items) == 0 {
		return items, nil
	}

	seenEmails := make(map[string]struct{}, len(items))
	seenIDs := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	var dropped []Dropped

	for i, item := range items {
		k := keys(item)
		email := strings.ToLower(strings.TrimSpace(k.Email))
		id := strings.TrimSpace(k.ProviderID)

		if email != "" {
			if _, ok := seenEmails[email]; ok {
				dropped = append(dropped, Dropped{Index: i, Key: email, Reason: ReasonDuplicateEmail})
				continue
			}
		}
		if id != "" {
			if _, ok := seenIDs[id]; ok {
				dropped = append(dropped, Dropped{Index: i, Key: id, Reason: ReasonDuplicateProviderID})
				continue
			}
		}

		if email != "" {
			seenEmails[email] = struct{}{}
		}
		if id != "" {
			seenIDs[id] = struct{}{}
		}
		out = append(out, item)
	}
	return out, dropped
}

// LeadKeys keys a lead on its email and provider-assigned ID.
func LeadKeys(l model.Lead) Keys {
	return Keys{Email: l.Email, ProviderID: l.ProviderID}
}

// CompanyKeys keys a company on its domain and provider-assigned ID.
func CompanyKeys(c model.Company) Keys {
	id := c.OrganizationID
	if id == "" {
		id = c.ID
	}
	return Keys{Email: c.Domain, ProviderID: id}
}

// Leads deduplicates leads and logs every drop.
func Leads(leads []model.Lead) []model.Lead {
	out, dropped := Merge(leads, LeadKeys)
	logDropped("lead", dropped)
	return out
}

// Companies deduplicates companies and logs every drop.
func Companies(companies []model.Company) []model.Company {
	out, dropped := Merge(companies, CompanyKeys)
	logDropped("company", dropped)
	return out
}

func logDropped(kind string, dropped []Dropped) {
	for _, d := range dropped {
		zap.L().Info("dedupe: dropped duplicate",
			zap.String("kind", kind),
			zap.Int("index", d.Index),
			zap.String("key", d.Key),
			zap.String("reason", d.Reason),
		)
	}
}
