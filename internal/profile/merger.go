package profile

import (
	"fmt"
	"reflect"
	"strings"
)

// Policy selects how scalar fields already present in a stored profile are
// treated when an incoming profile also carries them.
type Policy int

const (
	// PolicyProtectManual lets incoming values overwrite, except that a value
	// entered by hand is only replaced by another manual value.
	PolicyProtectManual Policy = iota
	// PolicyOverwrite always lets a present incoming value win.
	PolicyOverwrite
	// PolicyRanked keeps the existing value when its source ranks higher.
	PolicyRanked
	// PolicyStrict refuses to change a present scalar to a different value.
	PolicyStrict
)

func (p Policy) String() string {
	switch p {
	case PolicyProtectManual:
		return "protect_manual"
	case PolicyOverwrite:
		return "overwrite"
	case PolicyRanked:
		return "ranked"
	case PolicyStrict:
		return "strict"
	}
	return "unknown"
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "protect_manual":
		return PolicyProtectManual, nil
	case "overwrite":
		return PolicyOverwrite, nil
	case "ranked":
		return PolicyRanked, nil
	case "strict":
		return PolicyStrict, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q", s)
}

// ConflictError lists the fields PolicyStrict refused to change.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return "conflicting values for " + strings.Join(e.Fields, ", ")
}

// Merger combines an incoming validated profile with a stored one.
type Merger struct {
	Policy Policy
}

// Merge applies the default policy. It never fails.
func Merge(existing *StudentProfile, incoming *Validated) StudentProfile {
	out, _ := Merger{}.Merge(existing, incoming)
	return out
}

// Merge never removes a field present in existing. List fields are unioned,
// existing items first, then new incoming items in their order. Only
// PolicyStrict returns an error, a *ConflictError.
func (m Merger) Merge(existing *StudentProfile, incoming *Validated) (StudentProfile, error) {
	if existing == nil {
		return incoming.Profile(), nil
	}

	values := existing.values()
	prov := make(map[string]Source, len(values))
	for name := range values {
		prov[name] = existing.SourceOf(name)
	}

	var conflicts []string
	for _, name := range incoming.Names() {
		in, _ := incoming.Get(name)
		src := incoming.Source(name)
		cur, has := values[name]
		if !has {
			values[name] = in
			prov[name] = src
			continue
		}

		if IsList(name) {
			curList, _ := cur.([]string)
			inList, _ := in.([]string)
			values[name] = union(curList, inList)
			if prov[name] == SourceUnknown {
				prov[name] = src
			}
			continue
		}

		if reflect.DeepEqual(cur, in) {
			continue
		}
		if !m.replaces(prov[name], src) {
			if m.Policy == PolicyStrict {
				conflicts = append(conflicts, name)
			}
			continue
		}
		values[name] = in
		prov[name] = src
	}

	if len(conflicts) > 0 {
		return existing.Clone(), &ConflictError{Fields: conflicts}
	}
	return buildProfile(values, prov), nil
}

func (m Merger) replaces(current, incoming Source) bool {
	switch m.Policy {
	case PolicyOverwrite:
		return true
	case PolicyRanked:
		return incoming.Rank() >= current.Rank()
	case PolicyStrict:
		return false
	default:
		return current != SourceManual || incoming == SourceManual
	}
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, l := range [][]string{a, b} {
		for _, it := range l {
			if _, dup := seen[it]; dup {
				continue
			}
			seen[it] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
