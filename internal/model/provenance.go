package model

// Provenance maps a field key to the source that supplied its value.
type Provenance map[string]string

// Source returns the source recorded for a field, or "" if unset.
func (p Provenance) Source(field string) string {
	if p == nil {
		return ""
	}
	return p[field]
}
