package profile

// Source tags which extraction path produced a field value.
type Source string

const (
	SourceRemoteModel Source = "remote_model"
	SourceLocalRules  Source = "local_rules"
	SourceManual      Source = "manual"
	SourceUnknown     Source = ""
)

// Rank orders sources by how much a value from them is trusted.
func (s Source) Rank() int {
	switch s {
	case SourceManual:
		return 3
	case SourceRemoteModel:
		return 2
	case SourceLocalRules:
		return 1
	default:
		return 0
	}
}

// Draft is the unvalidated output of one extraction call. A field that was
// not found is absent from Values; it is never stored as an empty value.
type Draft struct {
	Values  map[string]any    `json:"values"`
	Sources map[string]Source `json:"sources,omitempty"`

	source Source
}

// NewDraft returns an empty draft whose fields default to src provenance.
func NewDraft(src Source) *Draft {
	return &Draft{
		Values:  map[string]any{},
		Sources: map[string]Source{},
		source:  src,
	}
}

// DraftFromMap builds a draft from a field-keyed mapping, e.g. a request body.
func DraftFromMap(m map[string]any, src Source) *Draft {
	d := NewDraft(src)
	for k, v := range m {
		d.Set(k, v)
	}
	return d
}

// DefaultSource is the provenance given to fields set without an explicit one.
func (d *Draft) DefaultSource() Source { return d.source }

// Set records v for name with the draft's default provenance. Nil values and
// blank strings are ignored so that "not found" stays absent.
func (d *Draft) Set(name string, v any) {
	d.SetFrom(name, v, d.source)
}

// SetFrom records v for name with an explicit provenance.
func (d *Draft) SetFrom(name string, v any, src Source) {
	if isBlank(v) {
		return
	}
	if d.Values == nil {
		d.Values = map[string]any{}
	}
	if d.Sources == nil {
		d.Sources = map[string]Source{}
	}
	d.Values[name] = v
	d.Sources[name] = src
}

// Get returns the raw value for name.
func (d *Draft) Get(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.Values[name]
	return v, ok
}

// Has reports whether name is present.
func (d *Draft) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// SourceOf returns the provenance recorded for name.
func (d *Draft) SourceOf(name string) Source {
	if d == nil {
		return SourceUnknown
	}
	if s, ok := d.Sources[name]; ok {
		return s
	}
	return d.source
}

// Names returns the present field names, sorted.
func (d *Draft) Names() []string {
	if d == nil {
		return nil
	}
	return sortedKeys(d.Values)
}

// Len is the number of present fields.
func (d *Draft) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Values)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return trimmed(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
