package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Token is a POS-tagged word with byte offsets into its sentence.
type Token struct {
	Text  string
	Tag   string
	Start int
	End   int
}

// ProseAnalyzer runs prose's segmenter, tagger and NER, then adds LANGUAGE
// entities from a gazetteer and noun chunks built from the tags.
type ProseAnalyzer struct {
	languages map[string]struct{}
}

func NewProseAnalyzer() *ProseAnalyzer {
	langs := make(map[string]struct{}, len(knownLanguages))
	for _, l := range knownLanguages {
		langs[strings.ToLower(l)] = struct{}{}
	}
	return &ProseAnalyzer{languages: langs}
}

func (a *ProseAnalyzer) Analyze(ctx context.Context, text string) (*Doc, error) {
	seg, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	out := &Doc{Text: text}
	cursor := 0
	for _, s := range seg.Sentences() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := cursor
		if i := strings.Index(text[cursor:], s.Text); i >= 0 {
			start = cursor + i
			cursor = start + len(s.Text)
		}

		sent, err := a.analyzeSentence(s.Text)
		if err != nil {
			return nil, err
		}
		sent.Start = start
		out.Sentences = append(out.Sentences, sent)
	}
	return out, nil
}

func (a *ProseAnalyzer) analyzeSentence(text string) (Sentence, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return Sentence{}, fmt.Errorf("tag: %w", err)
	}

	toks := make([]Token, 0, len(doc.Tokens()))
	cur := 0
	for _, t := range doc.Tokens() {
		start, end := cur, cur
		if i := strings.Index(text[cur:], t.Text); i >= 0 {
			start = cur + i
			end = start + len(t.Text)
			cur = end
		}
		toks = append(toks, Token{Text: t.Text, Tag: t.Tag, Start: start, End: end})
	}

	sent := Sentence{Text: text}
	cur = 0
	for _, e := range doc.Entities() {
		i := strings.Index(text[cur:], e.Text)
		if i < 0 {
			continue
		}
		start := cur + i
		ent := Entity{Text: e.Text, Label: e.Label, Start: start, End: start + len(e.Text)}
		cur = ent.End
		if IsPlace(ent.Label) {
			var ok bool
			if ent, ok = trimPlace(text, ent, toks); !ok {
				continue
			}
		}
		sent.Entities = append(sent.Entities, ent)
	}
	sent.Entities = append(sent.Entities, a.languageEntities(toks)...)
	sent.Chunks = ChunkNouns(text, toks)
	return sent, nil
}

// trimPlace narrows a place entity to its proper-noun tokens. The tagger's
// NER tends to swallow a following number ("Boston 2 years ago").
func trimPlace(sentence string, e Entity, toks []Token) (Entity, bool) {
	var span []Token
	for _, t := range toks {
		if t.Start < t.End && t.Start >= e.Start && t.End <= e.End {
			span = append(span, t)
		}
	}
	if len(span) == 0 {
		return e, true
	}

	lo, hi := 0, len(span)
	for lo < hi && !isProperNoun(span[lo].Tag) {
		lo++
	}
	for hi > lo && !isProperNoun(span[hi-1].Tag) {
		hi--
	}
	if lo == hi {
		// untagged as a proper noun; only strip numbers
		lo, hi = 0, len(span)
		for hi > lo && isNumeric(span[hi-1]) {
			hi--
		}
		if lo == hi {
			return Entity{}, false
		}
	}

	start, end := span[lo].Start, span[hi-1].End
	return Entity{Text: sentence[start:end], Label: e.Label, Start: start, End: end}, true
}

func isProperNoun(tag string) bool {
	return tag == "NNP" || tag == "NNPS"
}

func isNumeric(t Token) bool {
	if t.Tag == "CD" {
		return true
	}
	return strings.Trim(t.Text, "0123456789.,") == ""
}

func (a *ProseAnalyzer) languageEntities(toks []Token) []Entity {
	var out []Entity
	for _, t := range toks {
		if t.Start == t.End {
			continue
		}
		if _, ok := a.languages[strings.ToLower(t.Text)]; ok {
			out = append(out, Entity{Text: t.Text, Label: LabelLanguage, Start: t.Start, End: t.End})
		}
	}
	return out
}

// ChunkNouns groups maximal runs of determiner/adjective/number/noun tokens
// into phrases that end on a noun. Pronouns never form a chunk.
func ChunkNouns(sentence string, toks []Token) []Chunk {
	var out []Chunk
	first, lastNoun := -1, -1

	flush := func() {
		if first >= 0 && lastNoun >= first {
			s, e := toks[first].Start, toks[lastNoun].End
			if e > s && e <= len(sentence) {
				out = append(out, Chunk{Text: sentence[s:e], Start: s, End: e})
			}
		}
		first, lastNoun = -1, -1
	}

	for i, t := range toks {
		switch {
		case isNoun(t.Tag):
			if first < 0 {
				first = i
			}
			lastNoun = i
		case isModifier(t.Tag):
			// a determiner after a noun starts a new phrase
			if lastNoun >= 0 && (t.Tag == "DT" || t.Tag == "PRP$") {
				flush()
			}
			if first < 0 {
				first = i
			}
		default:
			flush()
		}
	}
	flush()
	return out
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isModifier(tag string) bool {
	switch tag {
	case "DT", "PRP$", "JJ", "JJR", "JJS", "CD":
		return true
	}
	return false
}

var knownLanguages = []string{
	"Arabic", "Bengali", "Cantonese", "Catalan", "Chinese", "Czech", "Danish", "Dutch",
	"English", "Farsi", "Finnish", "French", "German", "Greek", "Gujarati", "Hebrew",
	"Hindi", "Hungarian", "Indonesian", "Italian", "Japanese", "Korean", "Malay",
	"Mandarin", "Norwegian", "Persian", "Polish", "Portuguese", "Punjabi", "Romanian",
	"Russian", "Serbian", "Spanish", "Swahili", "Swedish", "Tagalog", "Tamil", "Thai",
	"Turkish", "Ukrainian", "Urdu", "Vietnamese",
}
