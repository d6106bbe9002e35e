package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadApp_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LLM_PROVIDER", "EXTRACTION_TIMEOUT", "EXTRACTION_MAX_RETRIES", "MERGE_POLICY", "STT_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadApp()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, 2, cfg.ExtractionMaxRetries)
	assert.Equal(t, "protect_manual", cfg.MergePolicy)
	assert.False(t, cfg.STTEnabled)
}

func TestLoadApp_Overrides(t *testing.T) {
	t.Setenv("EXTRACTION_TIMEOUT", "5s")
	t.Setenv("EXTRACTION_MAX_RETRIES", "4")
	t.Setenv("LLM_PROVIDER", "GEMINI")
	t.Setenv("GCP_PROJECT", "proj")

	cfg, err := LoadApp()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, 4, cfg.ExtractionMaxRetries)
	assert.Equal(t, "gemini", cfg.LLMProvider)
}

func TestLoadApp_Invalid(t *testing.T) {
	t.Setenv("EXTRACTION_TIMEOUT", "soon")
	_, err := LoadApp()
	assert.ErrorContains(t, err, "EXTRACTION_TIMEOUT")

	t.Setenv("EXTRACTION_TIMEOUT", "1s")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GCP_PROJECT", "")
	_, err = LoadApp()
	assert.Error(t, err)

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("MERGE_POLICY", "whatever")
	_, err = LoadApp()
	assert.Error(t, err)
}
