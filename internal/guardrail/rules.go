package guardrail

import (
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Built-in rule names.
const (
	RuleRequiredNameFields  = "required_name_fields"
	RuleValidEmail          = "valid_email"
	RuleRequiredCompanyName = "required_company_name"
)

// RequiredNameFields rejects leads without both a first and a last name.
func RequiredNameFields() Rule[model.Lead] {
	return Rule[model.Lead]{
		Name: RuleRequiredNameFields,
		Check: func(l model.Lead) bool {
			return strings.TrimSpace(l.FirstName) != "" && strings.TrimSpace(l.LastName) != ""
		},
	}
}

// ValidEmail rejects leads whose email, when present, lacks a single "@"
// followed by a dotted domain.
func ValidEmail() Rule[model.Lead] {
	return Rule[model.Lead]{
		Name: RuleValidEmail,
		Check: func(l model.Lead) bool {
			e := strings.TrimSpace(l.Email)
			if e == "" {
				return true
			}
			if strings.Count(e, "@") != 1 {
				return false
			}
			local, domain, _ := strings.Cut(e, "@")
			if local == "" {
				return false
			}
			dot := strings.LastIndex(domain, ".")
			return dot > 0 && dot < len(domain)-1
		},
	}
}

// RequiredCompanyName rejects companies without a name.
func RequiredCompanyName() Rule[model.Company] {
	return Rule[model.Company]{
		Name: RuleRequiredCompanyName,
		Check: func(c model.Company) bool {
			return strings.TrimSpace(c.Name) != ""
		},
	}
}

// DefaultLeadValidator returns the lead validator with the name rule and,
// when strict, the email format rule.
func DefaultLeadValidator(strict bool) *Validator[model.Lead] {
	v := New(RequiredNameFields())
	if strict {
		v.Add(ValidEmail())
	}
	return v
}

// DefaultCompanyValidator returns the company validator.
func DefaultCompanyValidator() *Validator[model.Company] {
	return New(RequiredCompanyName())
}
