package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yoockh/eslsheets/config"
	"github.com/yoockh/eslsheets/internal/extraction"
	"github.com/yoockh/eslsheets/internal/logger"
	"github.com/yoockh/eslsheets/internal/pipeline"
	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/llm"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a profile from a transcript file",
	Long:  "Reads a transcript (or stdin with --file -), runs the chosen strategy, validates the draft and merges it into an optional existing profile.",
	RunE:  runExtract,
}

var (
	extractFile     string
	extractStrategy string
	extractExisting string
	extractPolicy   string
)

// errRunFailed marks a pipeline failure whose JSON was already printed.
var errRunFailed = errors.New("extraction failed")

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to transcript text file, - for stdin (required)")
	extractCmd.Flags().StringVarP(&extractStrategy, "strategy", "s", extraction.NameLocal, "Extraction strategy: local, remote or chain")
	extractCmd.Flags().StringVarP(&extractExisting, "existing", "e", "", "Path to an existing profile JSON object to merge into")
	extractCmd.Flags().StringVar(&extractPolicy, "policy", "", "Merge policy (overrides MERGE_POLICY)")

	if err := extractCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	transcript, err := readInput(cmd.InOrStdin(), extractFile)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	var existing *profile.StudentProfile
	if extractExisting != "" {
		existing, err = loadExisting(extractExisting)
		if err != nil {
			return err
		}
	}

	cfg, err := config.LoadApp()
	if err != nil {
		return err
	}
	if extractPolicy != "" {
		cfg.MergePolicy = extractPolicy
	}
	merger, err := cfg.Merger()
	if err != nil {
		return err
	}

	log := logger.New()
	log.SetOutput(cmd.ErrOrStderr())

	var gen llm.Provider
	if extractStrategy != extraction.NameLocal {
		gen, err = config.NewLLMProvider(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if gen != nil {
			defer gen.Close()
		}
	}

	res, err := extractWith(cmd, config.Strategies(cfg, gen, log), merger, log, transcript, existing)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.OK {
		cmd.SilenceUsage = true
		return errRunFailed
	}
	return nil
}

func extractWith(cmd *cobra.Command, strategies map[string]extraction.Strategy, merger profile.Merger, log *logrus.Logger, transcript string, existing *profile.StudentProfile) (pipeline.Result, error) {
	st, ok := strategies[extractStrategy]
	if !ok {
		return pipeline.Result{}, fmt.Errorf("strategy %q is not available (LLM_PROVIDER may be none)", extractStrategy)
	}
	return pipeline.New(merger, log).Run(cmd.Context(), transcript, existing, st), nil
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// loadExisting reads a field-keyed JSON object and validates it like a
// manual edit.
func loadExisting(path string) (*profile.StudentProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing profile: %w", err)
	}
	defer f.Close()

	var fields map[string]any
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal existing profile JSON: %w", err)
	}

	v, defects := profile.Validator{AllowUnknown: true}.Validate(profile.DraftFromMap(fields, profile.SourceManual))
	if len(defects) > 0 {
		return nil, fmt.Errorf("existing profile is invalid: %v", defects)
	}
	p := v.Profile()
	return &p, nil
}
