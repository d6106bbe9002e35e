package pipeline

import (
	"fmt"

	"github.com/yoockh/eslsheets/internal/extraction"
	"github.com/yoockh/eslsheets/internal/profile"
)

// ErrorKind names the stage that stopped a run.
type ErrorKind string

const (
	KindExtraction    ErrorKind = "extraction_error"
	KindValidation    ErrorKind = "validation_failed"
	KindMergeConflict ErrorKind = "merge_conflict"
	// KindInternal covers a recovered panic inside a stage.
	KindInternal ErrorKind = "internal"
)

// Result is either a success carrying the merged profile or a Failure.
type Result struct {
	OK bool `json:"ok"`

	// Profile is the merge of the stored profile and Validated.
	Profile   *profile.StudentProfile `json:"profile,omitempty"`
	Validated *profile.Validated      `json:"validated,omitempty"`

	Failure *Failure `json:"failure,omitempty"`
}

type Failure struct {
	Kind           ErrorKind             `json:"kind"`
	ExtractionKind extraction.Kind       `json:"extraction_kind,omitempty"`
	Message        string                `json:"message"`
	Defects        []profile.FieldDefect `json:"defects,omitempty"`
	Err            error                 `json:"-"`
}

func (f *Failure) Error() string {
	if f.ExtractionKind != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.ExtractionKind, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.OK || r.Failure == nil {
		return nil
	}
	return r.Failure
}

func success(v *profile.Validated, merged profile.StudentProfile) Result {
	return Result{OK: true, Profile: &merged, Validated: v}
}

func failure(f *Failure) Result {
	return Result{Failure: f}
}
