// Command collector drives the §6 golden-data recording CLI: it replays a
// list of scenario requests against the real upstream providers, capturing
// masked HTTP traffic via internal/golden.Recorder and writing one
// golden-data file per scenario.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/barbashov/chatguard/internal/golden"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		inputPath  string
		outputDir  string
		secretsCSV string
		onlyModule string
		onlyMethod string
	)

	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Record golden HTTP scenarios against real upstream providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var secrets []string
			if secretsCSV != "" {
				secrets = strings.Split(secretsCSV, ",")
			}
			return run(cmd.Context(), inputPath, outputDir, secrets, onlyModule, onlyMethod)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to scenarios.json (required)")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write golden-data files to (required)")
	cmd.Flags().StringVar(&secretsCSV, "secrets", "", "comma-separated explicit secret values to mask")
	cmd.Flags().StringVar(&onlyModule, "module", "", "only run scenarios for this module")
	cmd.Flags().StringVar(&onlyMethod, "function", "", "only run scenarios for this method")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func run(ctx context.Context, inputPath, outputDir string, secrets []string, onlyModule, onlyMethod string) error {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	scenarios, err := loadScenarios(inputPath)
	if err != nil {
		return err
	}

	masker := golden.NewMasker(secrets, nil)
	failed := 0

	for i, sc := range scenarios {
		if onlyModule != "" && sc.Module != onlyModule {
			continue
		}
		if onlyMethod != "" && sc.Method != onlyMethod {
			continue
		}

		t, ok := targets[sc.Module]
		if !ok {
			log.Error().Str("module", sc.Module).Msg("no collector target registered for module")
			failed++
			continue
		}

		recorder := golden.NewRecorder(nil, masker)
		result, runErr := t.run(ctx, recorder, sc.Method, sc.InitKwargs, sc.Kwargs)

		metadata := golden.Metadata{
			Name:        scenarioName(sc, i),
			Description: sc.Description,
			Module:      sc.Module,
			Class:       sc.Class,
			Method:      sc.Method,
			InitKwargs:  sc.InitKwargs,
			Kwargs:      sc.Kwargs,
		}
		if runErr == nil {
			metadata.ResultType = fmt.Sprintf("%T", result)
		}

		outPath := filepath.Join(outputDir, metadata.Name+".json")
		if saveErr := recorder.Save(outPath, metadata); saveErr != nil {
			log.Error().Err(saveErr).Str("scenario", metadata.Name).Msg("failed to save golden data")
			failed++
			continue
		}

		if runErr != nil {
			log.Error().Err(runErr).Str("scenario", metadata.Name).Msg("scenario failed")
			failed++
			continue
		}

		log.Info().Str("scenario", metadata.Name).Int("calls", len(recorder.Calls())).Msg("recorded scenario")
	}

	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}

func scenarioName(sc scenarioRequest, index int) string {
	name := sc.Description
	if name == "" {
		name = fmt.Sprintf("%s-%s-%d", sc.Module, sc.Method, index)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
