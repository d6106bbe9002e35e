package extraction

import (
	"errors"
	"fmt"
)

// Kind classifies why a strategy could not produce a draft.
type Kind string

const (
	KindUnavailable       Kind = "unavailable"
	KindTimeout           Kind = "timeout"
	KindMalformedResponse Kind = "malformed_response"
	KindCancelled         Kind = "cancelled"
	KindEmptyTranscript   Kind = "empty_transcript"
)

// ExtractionError is the only error type strategies return.
type ExtractionError struct {
	Kind     Kind
	Strategy string
	Attempts int
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s extraction: %s", e.Strategy, e.Kind)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// KindOf returns the kind of an ExtractionError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

var errEmptyTranscript = errors.New("transcript is empty")
