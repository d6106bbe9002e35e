package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/nlp"
)

const defaultLocalConcurrency = 4

// LocalStrategy fills the draft with rule-based extractors over a linguistic
// analysis of the transcript. Concurrent runs are capped because the
// analyzer's model memory grows with each in-flight document.
type LocalStrategy struct {
	Analyzer nlp.Analyzer
	Logger   *logrus.Logger

	sem   *semaphore.Weighted
	rules []rule
}

func NewLocalStrategy(a nlp.Analyzer, maxConcurrent int, log *logrus.Logger) *LocalStrategy {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultLocalConcurrency
	}
	if log == nil {
		log = logrus.New()
	}
	return &LocalStrategy{
		Analyzer: a,
		Logger:   log,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		rules:    defaultRules(),
	}
}

func (s *LocalStrategy) Name() string { return NameLocal }

func (s *LocalStrategy) Extract(ctx context.Context, transcript string) (*profile.Draft, error) {
	if err := checkTranscript(NameLocal, transcript); err != nil {
		return nil, err
	}
	if s.Analyzer == nil {
		return nil, s.fail(KindUnavailable, errors.New("no linguistic analyzer configured"))
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, s.fromContext(err)
	}
	defer s.sem.Release(1)

	doc, err := s.Analyzer.Analyze(ctx, transcript)
	if err != nil {
		if ctx.Err() != nil {
			return nil, s.fromContext(ctx.Err())
		}
		return nil, s.fail(KindUnavailable, fmt.Errorf("analyze: %w", err))
	}
	if doc == nil {
		doc = &nlp.Doc{}
	}
	if doc.Text == "" {
		doc.Text = transcript
	}

	d := profile.NewDraft(profile.SourceLocalRules)
	for _, r := range s.rules {
		s.apply(r, doc, d)
	}
	return d, nil
}

// apply runs one rule; a panicking rule leaves its fields absent.
func (s *LocalStrategy) apply(r rule, doc *nlp.Doc, d *profile.Draft) {
	defer func() {
		if rec := recover(); rec != nil {
			s.Logger.WithFields(logrus.Fields{
				"strategy": NameLocal,
				"rule":     r.name,
			}).Errorf("extractor panicked: %v", rec)
		}
	}()

	// rules write into a scratch draft so a panic cannot leave half a result
	scratch := profile.NewDraft(profile.SourceLocalRules)
	r.run(doc, scratch)
	for _, name := range scratch.Names() {
		v, _ := scratch.Get(name)
		d.Set(name, v)
	}
}

func (s *LocalStrategy) fromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return s.fail(KindTimeout, err)
	}
	return s.fail(KindCancelled, err)
}

func (s *LocalStrategy) fail(kind Kind, err error) error {
	return &ExtractionError{Kind: kind, Strategy: NameLocal, Attempts: 1, Err: err}
}
