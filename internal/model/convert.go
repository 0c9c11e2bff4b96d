package model

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// IsNull reports whether v carries no usable value. nil, nil pointers,
// blank strings, zero numbers and empty slices or maps are all null.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case bool:
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsNull(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}

// AsString converts scalar values to a trimmed string.
func AsString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case *string:
		if t == nil {
			return "", true
		}
		return strings.TrimSpace(*t), true
	case int, int64, float64:
		return fmt.Sprint(t), true
	}
	return "", false
}

var firstNumber = regexp.MustCompile(`\d+`)

// AsInt converts numbers and numeric strings to int. Strings such as
// "11-50 employees" yield their first number.
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case *int:
		if t == nil {
			return 0, true
		}
		return *t, true
	case string:
		m := firstNumber.FindString(t)
		if m == "" {
			return 0, false
		}
		n, err := strconv.Atoi(m)
		return n, err == nil
	}
	return 0, false
}

// AsFloat converts numbers and numeric strings to float64.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case *float64:
		if t == nil {
			return 0, true
		}
		return *t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// AsStrings converts a string slice, an untyped slice of strings, or a
// comma-separated string to a trimmed []string without blanks.
func AsStrings(v any) ([]string, bool) {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil, true
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			raw = append(raw, s)
		}
	case string:
		raw = strings.Split(t, ",")
	default:
		return nil, false
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}
