package config

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/yoockh/eslsheets/internal/extraction"
	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/llm"
	"github.com/yoockh/eslsheets/internal/providers/nlp"
)

// GoogleOptions returns client options for Google APIs. Without a
// credentials file the default application credentials are used.
func (c *AppConfig) GoogleOptions() []option.ClientOption {
	if c.GoogleCredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.GoogleCredentialsFile)}
}

// NewLLMProvider builds the configured text-generation provider, wrapped in
// the outbound rate limiter. It returns nil for LLM_PROVIDER=none.
func NewLLMProvider(ctx context.Context, c *AppConfig) (llm.Provider, error) {
	var p llm.Provider
	switch c.LLMProvider {
	case "none":
		return nil, nil
	case "gemini":
		g, err := llm.NewVertexGemini(ctx, c.GCPProject, c.GCPLocation, c.LLMModel, c.GoogleOptions()...)
		if err != nil {
			return nil, fmt.Errorf("vertex gemini: %w", err)
		}
		p = g
	case "openai":
		if c.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for LLM_PROVIDER=openai")
		}
		p = llm.NewOpenAICompatible(c.LLMBaseURL, c.LLMAPIKey, c.LLMModel)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return llm.NewRateLimited(p, c.LLMRateLimit, 1), nil
}

// Strategies builds the extraction strategy registry. gen may be nil.
func Strategies(c *AppConfig, gen llm.Provider, log *logrus.Logger) map[string]extraction.Strategy {
	var remote *extraction.RemoteStrategy
	if gen != nil {
		remote = extraction.NewRemoteStrategy(gen, extraction.RemoteConfig{
			Timeout:     c.ExtractionTimeout,
			MaxRetries:  c.ExtractionMaxRetries,
			BaseBackoff: c.ExtractionBaseBackoff,
		}, log)
	}
	local := extraction.NewLocalStrategy(nlp.NewProseAnalyzer(), c.LocalConcurrency, log)
	return extraction.Registry(remote, local)
}

// Merger returns the configured merge policy.
func (c *AppConfig) Merger() (profile.Merger, error) {
	policy, err := profile.ParsePolicy(c.MergePolicy)
	if err != nil {
		return profile.Merger{}, err
	}
	return profile.Merger{Policy: policy}, nil
}
