package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	extractFile, extractStrategy, extractExisting, extractPolicy = "", "local", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestFieldsCommand(t *testing.T) {
	out, err := execute(t, "fields")
	require.NoError(t, err)
	assert.Contains(t, out, "english_level")
	assert.Contains(t, out, "string-list")
}

func TestExtractCommand_EmptyTranscriptFails(t *testing.T) {
	path := writeFile(t, "empty.txt", "   \n")

	out, err := execute(t, "extract", "--file", path, "--strategy", "local")
	assert.ErrorIs(t, err, errRunFailed)
	assert.Contains(t, out, `"extraction_kind": "empty_transcript"`)
}

func TestExtractCommand_RequiresFile(t *testing.T) {
	_, err := execute(t, "extract")
	assert.Error(t, err)
}

func TestExtractCommand_UnknownStrategy(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	path := writeFile(t, "t.txt", "I like chess.")

	_, err := execute(t, "extract", "--file", path, "--strategy", "remote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestLoadExisting(t *testing.T) {
	p, err := loadExisting(writeFile(t, "p.json", `{"name":"Ana","years_of_experience":3,"notes":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	require.NotNil(t, p.YearsOfExperience)
	assert.Equal(t, 3, *p.YearsOfExperience)

	_, err = loadExisting(writeFile(t, "bad.json", `{"english_level":"expert"}`))
	assert.Error(t, err)
}
