package cost

import (
	"sort"
	"sync"
)

// Entry is one ledger line: every call of a type to a provider.
type Entry struct {
	Provider  string  `json:"provider"`
	CallType  string  `json:"call_type"`
	Calls     int     `json:"calls"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Tokens    int     `json:"tokens,omitempty"`
	USD       float64 `json:"usd"`
}

// Observer is notified of every recorded call.
type Observer func(provider, callType string, count int, success bool)

type entryKey struct {
	provider string
	callType string
}

// Tracker accumulates provider calls and their cost. It is safe for
// concurrent use.
type Tracker struct {
	calc *Calculator

	mu        sync.Mutex
	entries   map[entryKey]*Entry
	observers []Observer
}

// NewTracker creates a tracker. A nil calculator prices every call at zero.
func NewTracker(calc *Calculator) *Tracker {
	if calc == nil {
		calc = NewCalculator(Rates{})
	}
	return &Tracker{calc: calc, entries: make(map[entryKey]*Entry)}
}

// Observe registers fn to be called after each RecordCall.
func (t *Tracker) Observe(fn Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// RecordCall records count call attempts. Only successful calls are priced.
func (t *Tracker) RecordCall(provider, callType string, count int, success bool) {
	if count <= 0 {
		return
	}
	t.mu.Lock()
	e := t.entry(provider, callType)
	e.Calls += count
	if success {
		e.Succeeded += count
		e.USD += t.calc.Call(provider, callType, count)
	} else {
		e.Failed += count
	}
	observers := append([]Observer(nil), t.observers...)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(provider, callType, count, success)
	}
}

// RecordTokens adds token usage for a chat completion to the provider's
// ledger line for callType.
func (t *Tracker) RecordTokens(provider, callType, model string, input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(provider, callType)
	e.Tokens += input + output
	e.USD += t.calc.Tokens(model, input, output)
}

func (t *Tracker) entry(provider, callType string) *Entry {
	k := entryKey{provider: provider, callType: callType}
	e, ok := t.entries[k]
	if !ok {
		e = &Entry{Provider: provider, CallType: callType}
		t.entries[k] = e
	}
	return e
}

// Ledger returns a copy of every entry sorted by provider then call type.
func (t *Tracker) Ledger() []Entry {
	t.mu.Lock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].CallType < out[j].CallType
	})
	return out
}

// TotalUSD sums the cost of every entry.
func (t *Tracker) TotalUSD() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, e := range t.entries {
		total += e.USD
	}
	return total
}

// Calls returns the number of recorded attempts for a provider.
func (t *Tracker) Calls(provider string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int
	for k, e := range t.entries {
		if k.provider == provider {
			n += e.Calls
		}
	}
	return n
}
