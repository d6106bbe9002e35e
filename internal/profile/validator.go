package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldDefect is one field-level validation problem.
type FieldDefect struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Value  any    `json:"value,omitempty"`
}

func (d FieldDefect) Error() string {
	return fmt.Sprintf("%s: %s", d.Field, d.Reason)
}

// Validator coerces a Draft to the declared field kinds.
//
// Every present field is checked independently and all defects are returned
// together. A draft with zero defects yields a Validated profile.
type Validator struct {
	// AllowUnknown drops unrecognized keys silently instead of reporting them.
	AllowUnknown bool
}

// Validate runs the validator with default settings.
func Validate(d *Draft) (*Validated, []FieldDefect) {
	return Validator{}.Validate(d)
}

func (v Validator) Validate(d *Draft) (*Validated, []FieldDefect) {
	out := &Validated{
		values:  map[string]any{},
		sources: map[string]Source{},
	}
	var defects []FieldDefect

	for _, name := range d.Names() {
		raw, _ := d.Get(name)
		f, ok := Lookup(name)
		if !ok {
			if !v.AllowUnknown {
				defects = append(defects, FieldDefect{Field: name, Reason: "unrecognized field", Value: raw})
			}
			continue
		}
		val, present, reason := coerce(f, raw)
		if reason != "" {
			defects = append(defects, FieldDefect{Field: name, Reason: reason, Value: raw})
			continue
		}
		if !present {
			continue
		}
		out.values[name] = val
		out.sources[name] = d.SourceOf(name)
	}

	if len(defects) > 0 {
		return nil, defects
	}
	return out, nil
}

// coerce returns the typed value, whether it is present after normalisation,
// and a non-empty reason on failure.
func coerce(f Field, raw any) (any, bool, string) {
	switch f.Kind {
	case KindString:
		s, reason := toString(raw)
		if reason != "" {
			return nil, false, reason
		}
		return s, s != "", ""
	case KindInt:
		n, reason := toInt(raw)
		if reason != "" {
			return nil, false, reason
		}
		if f.NonNegative && n < 0 {
			return nil, false, "must be non-negative"
		}
		return n, true, ""
	case KindFloat:
		x, reason := toFloat(raw)
		if reason != "" {
			return nil, false, reason
		}
		if f.NonNegative && x < 0 {
			return nil, false, "must be non-negative"
		}
		return x, true, ""
	case KindBool:
		b, reason := toBool(raw)
		if reason != "" {
			return nil, false, reason
		}
		return b, true, ""
	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, false, "expected a string"
		}
		s = strings.ToLower(trimmed(s))
		for _, allowed := range f.Enum {
			if s == allowed {
				return s, true, ""
			}
		}
		return nil, false, "must be one of " + strings.Join(f.Enum, ", ")
	case KindList:
		l, reason := toList(raw)
		if reason != "" {
			return nil, false, reason
		}
		return l, len(l) > 0, ""
	}
	return nil, false, "unsupported kind " + f.Kind.String()
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func toString(raw any) (string, string) {
	switch t := raw.(type) {
	case string:
		return trimmed(t), ""
	case bool:
		return strconv.FormatBool(t), ""
	case []string, []any:
		l, reason := toList(t)
		if reason != "" {
			return "", reason
		}
		return strings.Join(l, ", "), ""
	}
	if x, ok := number(raw); ok {
		return strconv.FormatFloat(x, 'f', -1, 64), ""
	}
	return "", fmt.Sprintf("expected a string, got %T", raw)
}

func toInt(raw any) (int, string) {
	if s, ok := raw.(string); ok {
		s = trimmed(s)
		if n, err := strconv.Atoi(s); err == nil {
			return n, ""
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Sprintf("%q is not a whole number", s)
		}
		raw = x
	}
	x, ok := number(raw)
	if !ok {
		return 0, fmt.Sprintf("expected a whole number, got %T", raw)
	}
	if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
		return 0, fmt.Sprintf("%v is not a whole number", x)
	}
	return int(x), ""
}

func toFloat(raw any) (float64, string) {
	if s, ok := raw.(string); ok {
		x, err := strconv.ParseFloat(trimmed(s), 64)
		if err != nil {
			return 0, fmt.Sprintf("%q is not a number", s)
		}
		raw = x
	}
	x, ok := number(raw)
	if !ok {
		return 0, fmt.Sprintf("expected a number, got %T", raw)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, "must be a finite number"
	}
	return x, ""
}

func toBool(raw any) (bool, string) {
	switch t := raw.(type) {
	case bool:
		return t, ""
	case string:
		switch strings.ToLower(trimmed(t)) {
		case "true", "yes", "y", "1":
			return true, ""
		case "false", "no", "n", "0":
			return false, ""
		}
		return false, fmt.Sprintf("%q is not a boolean", t)
	}
	return false, fmt.Sprintf("expected a boolean, got %T", raw)
}

// toList trims every element, drops empties and removes exact duplicates
// keeping first-seen order. A single string becomes a one-element list.
// CoerceList applies the list coercion Validate uses. reason is non-empty
// when raw cannot be read as a list of strings.
func CoerceList(raw any) (items []string, reason string) {
	return toList(raw)
}

func toList(raw any) ([]string, string) {
	var items []string
	switch t := raw.(type) {
	case string:
		items = []string{t}
	case []string:
		items = t
	case []any:
		items = make([]string, 0, len(t))
		for i, e := range t {
			switch ev := e.(type) {
			case nil:
				continue
			case string:
				items = append(items, ev)
			case bool:
				items = append(items, strconv.FormatBool(ev))
			default:
				x, ok := number(e)
				if !ok {
					return nil, fmt.Sprintf("element %d: expected a string, got %T", i, e)
				}
				items = append(items, strconv.FormatFloat(x, 'f', -1, 64))
			}
		}
	default:
		return nil, fmt.Sprintf("expected a list of strings, got %T", raw)
	}
	return uniqueTrimmed(items), ""
}

func uniqueTrimmed(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = trimmed(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func number(raw any) (float64, bool) {
	switch t := raw.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		x, err := t.Float64()
		return x, err == nil
	}
	return 0, false
}
