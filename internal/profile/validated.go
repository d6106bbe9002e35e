package profile

import "encoding/json"

// Validated is a type-checked profile. It is immutable: accessors return
// copies, and the only way to build one is through a Validator.
type Validated struct {
	values  map[string]any
	sources map[string]Source
}

// Get returns the typed value for name.
func (v *Validated) Get(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v.values[name]
	if l, isList := val.([]string); isList {
		return cloneList(l), ok
	}
	return val, ok
}

// Source returns which extraction path produced name.
func (v *Validated) Source(name string) Source {
	if v == nil {
		return SourceUnknown
	}
	return v.sources[name]
}

// Names returns the present field names, sorted.
func (v *Validated) Names() []string {
	if v == nil {
		return nil
	}
	return sortedKeys(v.values)
}

func (v *Validated) Len() int {
	if v == nil {
		return 0
	}
	return len(v.values)
}

// Draft turns the profile back into a draft carrying the same provenance.
func (v *Validated) Draft() *Draft {
	d := NewDraft(SourceUnknown)
	for _, name := range v.Names() {
		val, _ := v.Get(name)
		d.SetFrom(name, val, v.sources[name])
	}
	return d
}

// Profile returns the typed record form.
func (v *Validated) Profile() StudentProfile {
	if v == nil {
		return StudentProfile{}
	}
	return buildProfile(v.values, v.sources)
}

func (v *Validated) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Values  map[string]any    `json:"values"`
		Sources map[string]Source `json:"sources"`
	}{v.values, v.sources})
}
