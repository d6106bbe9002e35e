package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tag builds offset-carrying tokens for a sentence from "word/TAG" pairs.
func tag(t *testing.T, sentence string, pairs ...string) []Token {
	t.Helper()
	var toks []Token
	cur := 0
	for _, p := range pairs {
		i := strings.LastIndex(p, "/")
		require.Positive(t, i, p)
		word, tg := p[:i], p[i+1:]
		at := strings.Index(sentence[cur:], word)
		require.GreaterOrEqual(t, at, 0, word)
		start := cur + at
		toks = append(toks, Token{Text: word, Tag: tg, Start: start, End: start + len(word)})
		cur = start + len(word)
	}
	return toks
}

func chunkTexts(cs []Chunk) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Text)
	}
	return out
}

func TestChunkNouns(t *testing.T) {
	s := "I have been working as a software engineer for 5 years."
	toks := tag(t, s, "I/PRP", "have/VBP", "been/VBN", "working/VBG", "as/IN", "a/DT",
		"software/NN", "engineer/NN", "for/IN", "5/CD", "years/NNS", "./.")

	got := ChunkNouns(s, toks)
	assert.Equal(t, []string{"a software engineer", "5 years"}, chunkTexts(got))
	assert.Equal(t, strings.Index(s, "a software"), got[0].Start)
}

func TestChunkNouns_TrailingModifiersDropped(t *testing.T) {
	s := "My hobbies are reading books and the big"
	toks := tag(t, s, "My/PRP$", "hobbies/NNS", "are/VBP", "reading/VBG", "books/NNS",
		"and/CC", "the/DT", "big/JJ")

	assert.Equal(t, []string{"My hobbies", "books"}, chunkTexts(ChunkNouns(s, toks)))
}

func TestChunkNouns_DeterminerSplitsPhrase(t *testing.T) {
	s := "tennis the piano"
	toks := tag(t, s, "tennis/NN", "the/DT", "piano/NN")
	assert.Equal(t, []string{"tennis", "the piano"}, chunkTexts(ChunkNouns(s, toks)))
}

func TestLanguageEntities(t *testing.T) {
	a := NewProseAnalyzer()
	s := "My mother tongue is Portuguese but I also speak spanish."
	toks := tag(t, s, "My/PRP$", "mother/NN", "tongue/NN", "is/VBZ", "Portuguese/JJ",
		"but/CC", "I/PRP", "also/RB", "speak/VBP", "spanish/JJ", "./.")

	ents := a.languageEntities(toks)
	require.Len(t, ents, 2)
	assert.Equal(t, "Portuguese", ents[0].Text)
	assert.Equal(t, LabelLanguage, ents[0].Label)
	assert.Equal(t, "spanish", ents[1].Text)
}

func TestIsPlace(t *testing.T) {
	assert.True(t, IsPlace(LabelGPE))
	assert.True(t, IsPlace(LabelLOC))
	assert.False(t, IsPlace(LabelPerson))
}
