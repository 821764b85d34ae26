package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"health-companion/internal/domain"
	"health-companion/internal/gauge"
	"health-companion/internal/usecase"
)

var analyzeFlags struct {
	gaugeSVG string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Upload lab reports and show risk and trends",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.gaugeSVG, "gauge-svg", "", "Write the latest report's risk gauge as SVG to this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	files, err := readReportFiles(args)
	if err != nil {
		return err
	}

	agg, err := usecase.NewAggregator(a.analyzer, a.console, a.presenter)
	if err != nil {
		return err
	}
	batch, err := agg.SubmitBatch(ctx, files)
	if err != nil {
		// already shown to the user
		return nil
	}

	if analyzeFlags.gaugeSVG != "" {
		latest, ok := batch.Latest()
		if !ok {
			return nil
		}
		spec := gauge.Render(latest.Assessment.Score, gauge.ColorFor(latest.Assessment.Level))
		if err := os.WriteFile(analyzeFlags.gaugeSVG, []byte(spec.SVG()), 0o644); err != nil {
			return fmt.Errorf("write gauge svg: %w", err)
		}
	}
	return nil
}

func readReportFiles(paths []string) ([]domain.ReportFile, error) {
	files := make([]domain.ReportFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read report: %w", err)
		}
		files = append(files, domain.ReportFile{Name: filepath.Base(p), Content: content})
	}
	return files, nil
}
