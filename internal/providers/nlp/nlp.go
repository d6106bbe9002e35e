// Package nlp exposes the linguistic analysis the local extraction rules run
// over: sentence boundaries, labelled entities and noun phrases.
package nlp

import "context"

// Entity labels. Place-type labels are GPE (cities, countries) and LOC.
const (
	LabelPerson   = "PERSON"
	LabelLanguage = "LANGUAGE"
	LabelGPE      = "GPE"
	LabelLOC      = "LOC"
)

// IsPlace reports whether label names a place-type entity.
func IsPlace(label string) bool {
	return label == LabelGPE || label == LabelLOC
}

// Entity is a labelled span. Offsets are byte offsets into the sentence text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Chunk is a noun phrase span within a sentence.
type Chunk struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type Sentence struct {
	Text     string   `json:"text"`
	Start    int      `json:"start"` // offset in Doc.Text
	Entities []Entity `json:"entities,omitempty"`
	Chunks   []Chunk  `json:"chunks,omitempty"`
}

type Doc struct {
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
}

// Analyzer turns raw text into a Doc. Implementations hold any loaded model
// and must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Doc, error)
}
