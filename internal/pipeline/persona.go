package pipeline

import (
	"regexp"
	"strings"
	"sync"

	"github.com/sells-group/enrich-cli/internal/model"
)

// personaMatchConfidence is assigned to any persona match.
const personaMatchConfidence = 1.0

var (
	personaPatternsMu sync.RWMutex
	personaPatterns   = make(map[string]*regexp.Regexp)
	personaBadPattern = make(map[string]bool)
)

// compilePersonaPattern compiles p anchored at the start of the title and
// case-insensitive, caching both successes and failures.
func compilePersonaPattern(p string) (*regexp.Regexp, bool) {
	personaPatternsMu.RLock()
	re, ok := personaPatterns[p]
	bad := personaBadPattern[p]
	personaPatternsMu.RUnlock()
	if ok || bad {
		return re, ok
	}

	re, err := regexp.Compile(`(?i)^(?:` + p + `)`)
	personaPatternsMu.Lock()
	defer personaPatternsMu.Unlock()
	if err != nil {
		personaBadPattern[p] = true
		return nil, false
	}
	personaPatterns[p] = re
	return re, true
}

// MatchPersona returns the first persona whose title pattern matches the
// start of title. A pattern that does not compile falls back to a substring
// match of the persona name.
func MatchPersona(title string, personas []model.Persona) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	lower := strings.ToLower(title)
	for _, p := range personas {
		for _, pattern := range p.TitleRegex {
			re, ok := compilePersonaPattern(pattern)
			if !ok {
				if p.Name != "" && strings.Contains(lower, strings.ToLower(p.Name)) {
					return p.Name, true
				}
				continue
			}
			if re.MatchString(title) {
				return p.Name, true
			}
		}
	}
	return "", false
}

// applyPersona sets the matched persona on a lead and reports whether it
// changed anything.
func applyPersona(l *model.Lead, personas []model.Persona) bool {
	name, ok := MatchPersona(l.Title, personas)
	if !ok {
		return false
	}
	conf := personaMatchConfidence
	l.MatchedPersona = name
	l.PersonaConfidence = &conf
	return true
}
