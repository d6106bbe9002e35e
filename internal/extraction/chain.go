package extraction

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/yoockh/eslsheets/internal/profile"
)

// Chain runs several strategies concurrently and overlays their drafts.
// Earlier strategies win scalar fields; list fields are unioned in strategy
// order. Each field keeps the provenance of the strategy that supplied it.
type Chain struct {
	Strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{Strategies: strategies}
}

func (c *Chain) Name() string { return NameChain }

// Extract fails only when every strategy fails; the error is the first
// strategy's.
func (c *Chain) Extract(ctx context.Context, transcript string) (*profile.Draft, error) {
	if err := checkTranscript(NameChain, transcript); err != nil {
		return nil, err
	}
	if len(c.Strategies) == 0 {
		return nil, &ExtractionError{Kind: KindUnavailable, Strategy: NameChain, Err: errors.New("no strategies configured")}
	}

	drafts := make([]*profile.Draft, len(c.Strategies))
	errs := make([]error, len(c.Strategies))

	var g errgroup.Group
	for i, s := range c.Strategies {
		g.Go(func() error {
			drafts[i], errs[i] = s.Extract(ctx, transcript)
			return nil
		})
	}
	_ = g.Wait()

	out := profile.NewDraft(profile.SourceUnknown)
	ok := false
	for i, d := range drafts {
		if errs[i] != nil || d == nil {
			continue
		}
		ok = true
		overlay(out, d)
	}
	if !ok {
		return nil, errs[0]
	}
	return out, nil
}

func overlay(dst, src *profile.Draft) {
	for _, name := range src.Names() {
		v, _ := src.Get(name)
		if !dst.Has(name) {
			dst.SetFrom(name, v, src.SourceOf(name))
			continue
		}
		if !profile.IsList(name) {
			continue
		}
		cur, _ := dst.Get(name)
		a, reason := profile.CoerceList(cur)
		if reason != "" {
			// leave the bad value for the validator to report
			continue
		}
		b, reason := profile.CoerceList(v)
		if reason != "" {
			dst.SetFrom(name, v, src.SourceOf(name))
			continue
		}
		dst.SetFrom(name, dedupe(append(a, b...)), dst.SourceOf(name))
	}
}
