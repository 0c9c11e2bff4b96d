package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNull(t *testing.T) {
	t.Parallel()

	var nilPtr *string
	empty := ""
	full := "x"
	zero := 0

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"blank string", "   ", true},
		{"string", "acme", false},
		{"nil pointer", nilPtr, true},
		{"pointer to empty", &empty, true},
		{"pointer to value", &full, false},
		{"pointer to zero int", &zero, true},
		{"zero int", 0, true},
		{"int", 7, false},
		{"zero float", 0.0, true},
		{"bool false", false, false},
		{"empty slice", []string{}, true},
		{"slice", []string{"a"}, false},
		{"empty map", map[string]any{}, true},
		{"struct", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNull(tt.v))
		})
	}
}

func TestAsInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{42, 42, true},
		{int64(7), 7, true},
		{51.9, 51, true},
		{"201-500", 201, true},
		{"about 12 people", 12, true},
		{"none", 0, false},
		{[]string{"1"}, 0, false},
		{nil, 0, true},
	}

	for _, tt := range tests {
		got, ok := AsInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestAsStrings(t *testing.T) {
	t.Parallel()

	got, ok := AsStrings([]any{"a", " b "})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	got, ok = AsStrings("x, ,y")
	assert.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, got)

	got, ok = AsStrings(" , ")
	assert.True(t, ok)
	assert.Nil(t, got)

	_, ok = AsStrings([]any{"a", 1})
	assert.False(t, ok)
}

func TestAsStringAndFloat(t *testing.T) {
	t.Parallel()

	s, ok := AsString(" acme ")
	assert.True(t, ok)
	assert.Equal(t, "acme", s)

	s, ok = AsString(2019)
	assert.True(t, ok)
	assert.Equal(t, "2019", s)

	_, ok = AsString([]string{"a"})
	assert.False(t, ok)

	f, ok := AsFloat("0.75")
	assert.True(t, ok)
	assert.InDelta(t, 0.75, f, 1e-9)

	_, ok = AsFloat("high")
	assert.False(t, ok)
}

func TestSocialPayload(t *testing.T) {
	t.Parallel()

	p := NewSocialPayload()
	assert.False(t, p.Populated())

	p.SetURL(SocialGitHub, "https://github.com/jdoe")
	p.AddSource("serper_github")
	p.AddSource("serper_github")

	assert.True(t, p.Populated())
	assert.Equal(t, "https://github.com/jdoe", p.URL(SocialGitHub))
	assert.Equal(t, []string{"serper_github"}, p.Sources)
	assert.Empty(t, p.URL("unknown"))
}

func TestNewSourceRecordDropsNulls(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewSourceRecord(SourceCoreSignal, map[string]any{
		FieldName:     "Acme",
		FieldIndustry: "",
		FieldDomain:   nil,
	}, at)

	assert.True(t, r.Success)
	assert.Equal(t, map[string]any{FieldName: "Acme"}, r.Fields)
	assert.Equal(t, "Acme", r.Value(FieldName))
	assert.Nil(t, r.Value(FieldIndustry))

	failed := SourceRecord{Source: SourceCoreSignal, Fields: map[string]any{FieldName: "X"}}
	assert.Nil(t, failed.Value(FieldName))
}
