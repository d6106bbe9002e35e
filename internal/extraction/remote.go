package extraction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/llm"
)

const (
	defaultAttemptTimeout = 30 * time.Second
	defaultMaxRetries     = 2
	defaultBaseBackoff    = 500 * time.Millisecond
	maxBackoff            = 10 * time.Second
)

type RemoteConfig struct {
	Timeout     time.Duration // per attempt
	MaxRetries  int           // retries after the first attempt
	BaseBackoff time.Duration
}

// RemoteStrategy delegates extraction to a text-generation service.
type RemoteStrategy struct {
	Provider llm.Provider
	Config   RemoteConfig
	Logger   *logrus.Logger

	prompt string
}

func NewRemoteStrategy(p llm.Provider, cfg RemoteConfig, log *logrus.Logger) *RemoteStrategy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAttemptTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if log == nil {
		log = logrus.New()
	}
	return &RemoteStrategy{Provider: p, Config: cfg, Logger: log, prompt: BuildPrompt()}
}

func (s *RemoteStrategy) Name() string { return NameRemote }

// Extract calls the provider with a per-attempt timeout and retries transient
// failures with exponential backoff. Malformed responses are retried too, and
// reported as KindMalformedResponse once attempts run out.
func (s *RemoteStrategy) Extract(ctx context.Context, transcript string) (*profile.Draft, error) {
	if err := checkTranscript(NameRemote, transcript); err != nil {
		return nil, err
	}
	if s.Provider == nil {
		return nil, s.fail(KindUnavailable, 0, errors.New("no text-generation provider configured"))
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= s.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(s.backoff(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, s.fromContext(ctx.Err(), attempts, lastErr)
			case <-t.C:
			}
		}

		attempts++
		out, err := s.call(ctx, transcript)
		if err == nil {
			return s.toDraft(out), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, s.fromContext(ctx.Err(), attempts, err)
		}
		if !retryable(err) {
			return nil, s.fail(KindUnavailable, attempts, err)
		}
		s.Logger.WithFields(logrus.Fields{
			"strategy": NameRemote,
			"attempt":  attempts,
		}).WithError(err).Warn("extraction attempt failed, retrying")
	}

	var ate *attemptTimeoutError
	switch {
	case errors.As(lastErr, &ate):
		return nil, s.fail(KindTimeout, attempts, lastErr)
	case llm.IsMalformed(lastErr):
		return nil, s.fail(KindMalformedResponse, attempts, lastErr)
	default:
		return nil, s.fail(KindUnavailable, attempts, lastErr)
	}
}

type attemptTimeoutError struct {
	after time.Duration
	err   error
}

func (e *attemptTimeoutError) Error() string {
	return "attempt timed out after " + e.after.String() + ": " + e.err.Error()
}

func (e *attemptTimeoutError) Unwrap() error { return e.err }

func (s *RemoteStrategy) call(ctx context.Context, transcript string) (map[string]any, error) {
	actx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
	defer cancel()

	out, err := s.Provider.GenerateStructured(actx, s.prompt, transcript)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return nil, &attemptTimeoutError{after: s.Config.Timeout, err: err}
	}
	return out, err
}

func (s *RemoteStrategy) backoff(attempt int) time.Duration {
	d := s.Config.BaseBackoff * time.Duration(1<<(attempt-1))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}

func retryable(err error) bool {
	var ate *attemptTimeoutError
	return errors.As(err, &ate) || llm.IsTransient(err) || llm.IsMalformed(err)
}

func (s *RemoteStrategy) fromContext(ctxErr error, attempts int, last error) error {
	err := ctxErr
	if last != nil {
		err = errors.Join(ctxErr, last)
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return s.fail(KindTimeout, attempts, err)
	}
	return s.fail(KindCancelled, attempts, err)
}

func (s *RemoteStrategy) fail(kind Kind, attempts int, err error) error {
	return &ExtractionError{Kind: kind, Strategy: NameRemote, Attempts: attempts, Err: err}
}

var keyAliases = map[string]string{
	"proficiency_level":   profile.FieldEnglishLevel,
	"english_proficiency": profile.FieldEnglishLevel,
	"age":                 profile.FieldAgeRange,
	"full_name":           profile.FieldName,
	"occupation":          profile.FieldJobTitle,
}

// toDraft keeps only recognized keys. Nested objects under unrecognized keys
// (e.g. "professional_background") are flattened one level.
func (s *RemoteStrategy) toDraft(m map[string]any) *profile.Draft {
	d := profile.NewDraft(profile.SourceRemoteModel)
	var dropped []string
	s.collect(d, m, &dropped, true)

	if !d.Has(profile.FieldName) {
		first, _ := m["first_name"].(string)
		last, _ := m["last_name"].(string)
		d.Set(profile.FieldName, strings.TrimSpace(strings.TrimSpace(first)+" "+strings.TrimSpace(last)))
	}

	if len(dropped) > 0 {
		s.Logger.WithFields(logrus.Fields{
			"strategy": NameRemote,
			"dropped":  dropped,
		}).Debug("ignored unrecognized keys in model response")
	}
	return d
}

func (s *RemoteStrategy) collect(d *profile.Draft, m map[string]any, dropped *[]string, top bool) {
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		aliased := false
		if alias, ok := keyAliases[key]; ok {
			key, aliased = alias, true
		}
		if profile.IsRecognized(key) {
			// exact top-level keys beat aliases and nested copies
			if (top && !aliased) || !d.Has(key) {
				d.Set(key, v)
			}
			continue
		}
		if nested, ok := v.(map[string]any); ok && top {
			s.collect(d, nested, dropped, false)
			continue
		}
		if key != "first_name" && key != "last_name" {
			*dropped = append(*dropped, k)
		}
	}
}
