package stt

import (
	"context"
	"strings"
)

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

// NormalizeLanguage maps short language codes to BCP-47 tags, defaulting
// to en-US. Interviews are usually English but students may answer in
// their own language.
func NormalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "en", "en-us":
		return "en-US"
	case "en-gb":
		return "en-GB"
	case "es":
		return "es-ES"
	case "pt":
		return "pt-BR"
	case "id":
		return "id-ID"
	default:
		return v
	}
}
