package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// AppConfig holds the process settings read from the environment.
type AppConfig struct {
	Port string `validate:"required,numeric"`

	LLMProvider  string `validate:"oneof=openai gemini none"`
	LLMBaseURL   string `validate:"omitempty,url"`
	LLMAPIKey    string
	LLMModel     string
	LLMRateLimit float64 `validate:"gte=0"`

	GCPProject            string `validate:"required_if=LLMProvider gemini"`
	GCPLocation           string
	GoogleCredentialsFile string

	ExtractionTimeout     time.Duration `validate:"gt=0"`
	ExtractionMaxRetries  int           `validate:"gte=0,lte=10"`
	ExtractionBaseBackoff time.Duration `validate:"gt=0"`
	LocalConcurrency      int           `validate:"gte=1"`
	ExtractionWorkers     int           `validate:"gte=0"`
	MergePolicy           string        `validate:"oneof=protect_manual overwrite ranked strict"`

	ProfileCacheTTL time.Duration `validate:"gte=0"`
	RunTTL          time.Duration `validate:"gt=0"`

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	STTEnabled bool
}

// LoadApp reads AppConfig from the environment, applying defaults, and
// validates it.
func LoadApp() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                  env("PORT", "8080"),
		LLMProvider:           strings.ToLower(env("LLM_PROVIDER", "openai")),
		LLMBaseURL:            env("LLM_BASE_URL", ""),
		LLMAPIKey:             env("LLM_API_KEY", ""),
		LLMModel:              env("LLM_MODEL", ""),
		GCPProject:            env("GCP_PROJECT", ""),
		GCPLocation:           env("GCP_LOCATION", "us-central1"),
		GoogleCredentialsFile: env("GOOGLE_CREDENTIALS_FILE", ""),
		MergePolicy:           strings.ToLower(env("MERGE_POLICY", "protect_manual")),
		JWTSecret:             env("JWT_SECRET", ""),
		JWTIssuer:             env("JWT_ISSUER", ""),
		JWTAudience:           env("JWT_AUDIENCE", ""),
	}

	var err error
	parse := func(dst any, key, def string) {
		if err != nil {
			return
		}
		raw := env(key, def)
		switch d := dst.(type) {
		case *time.Duration:
			*d, err = time.ParseDuration(raw)
		case *int:
			*d, err = strconv.Atoi(raw)
		case *float64:
			*d, err = strconv.ParseFloat(raw, 64)
		case *bool:
			*d, err = strconv.ParseBool(raw)
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
	}
	parse(&cfg.ExtractionTimeout, "EXTRACTION_TIMEOUT", "30s")
	parse(&cfg.ExtractionMaxRetries, "EXTRACTION_MAX_RETRIES", "2")
	parse(&cfg.ExtractionBaseBackoff, "EXTRACTION_BASE_BACKOFF", "500ms")
	parse(&cfg.LLMRateLimit, "LLM_RATE_LIMIT", "2")
	parse(&cfg.LocalConcurrency, "LOCAL_EXTRACTION_CONCURRENCY", "4")
	parse(&cfg.ExtractionWorkers, "EXTRACTION_WORKERS", "4")
	parse(&cfg.ProfileCacheTTL, "PROFILE_CACHE_TTL", "10m")
	parse(&cfg.RunTTL, "RUN_TTL", "720h")
	parse(&cfg.STTEnabled, "STT_ENABLED", "false")
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
