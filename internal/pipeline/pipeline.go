// Package pipeline sequences extraction, validation and merge into one call
// that always returns a Result instead of an error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/eslsheets/internal/extraction"
	"github.com/yoockh/eslsheets/internal/profile"
)

// Pipeline holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	Validator profile.Validator
	Merger    profile.Merger
	Logger    *logrus.Logger
}

func New(merger profile.Merger, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{Merger: merger, Logger: log}
}

// Run extracts a draft from transcript, validates it and merges it into
// existing (which may be nil). existing is never modified; a failed stage
// short-circuits and nothing is merged.
func (p *Pipeline) Run(ctx context.Context, transcript string, existing *profile.StudentProfile, strategy extraction.Strategy) (res Result) {
	started := time.Now()
	stage := "extract"
	name := "none"
	if strategy != nil {
		name = strategy.Name()
	}
	log := p.logger().WithField("strategy", name)

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("stage", stage).Errorf("pipeline panicked: %v", rec)
			res = failure(&Failure{
				Kind:    KindInternal,
				Message: fmt.Sprintf("%s stage panicked", stage),
				Err:     fmt.Errorf("panic: %v", rec),
			})
		}
		fields := logrus.Fields{"ok": res.OK, "duration_ms": time.Since(started).Milliseconds()}
		if res.Failure != nil {
			fields["failure_kind"] = res.Failure.Kind
			log.WithFields(fields).Warn("extraction pipeline failed")
			return
		}
		log.WithFields(fields).Info("extraction pipeline finished")
	}()

	if strategy == nil {
		return failure(&Failure{
			Kind:           KindExtraction,
			ExtractionKind: extraction.KindUnavailable,
			Message:        "no extraction strategy selected",
		})
	}

	draft, err := strategy.Extract(ctx, transcript)
	if err != nil {
		return failure(extractionFailure(err))
	}

	stage = "validate"
	validated, defects := p.Validator.Validate(draft)
	if len(defects) > 0 {
		return failure(&Failure{
			Kind:    KindValidation,
			Message: fmt.Sprintf("%d field(s) failed validation", len(defects)),
			Defects: defects,
		})
	}

	stage = "merge"
	merged, err := p.Merger.Merge(existing, validated)
	if err != nil {
		return failure(&Failure{Kind: KindMergeConflict, Message: err.Error(), Err: err})
	}
	return success(validated, merged)
}

func (p *Pipeline) logger() *logrus.Logger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

func extractionFailure(err error) *Failure {
	f := &Failure{Kind: KindExtraction, Message: err.Error(), Err: err}
	var ee *extraction.ExtractionError
	if errors.As(err, &ee) {
		f.ExtractionKind = ee.Kind
	} else {
		f.ExtractionKind = extraction.KindUnavailable
	}
	return f
}
