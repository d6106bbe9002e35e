// Package extraction turns interview transcripts into draft student profiles.
// Strategies share one contract so callers can swap or chain them freely.
package extraction

import (
	"context"
	"strings"

	"github.com/yoockh/eslsheets/internal/profile"
)

// Strategy converts transcript text into an unvalidated draft. Failures are
// always *ExtractionError.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, transcript string) (*profile.Draft, error)
}

// Strategy names as accepted by the API and CLI.
const (
	NameRemote = "remote"
	NameLocal  = "local"
	NameChain  = "chain"
)

func checkTranscript(strategy, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return &ExtractionError{Kind: KindEmptyTranscript, Strategy: strategy, Err: errEmptyTranscript}
	}
	return nil
}
