package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"health-companion/internal/domain"
	"health-companion/internal/gauge"
)

var gaugeFlags struct {
	level string
	svg   string
}

var gaugeCmd = &cobra.Command{
	Use:   "gauge SCORE",
	Short: "Render the risk gauge for a score",
	Args:  cobra.ExactArgs(1),
	RunE:  runGauge,
}

func init() {
	f := gaugeCmd.Flags()
	f.StringVar(&gaugeFlags.level, "level", string(domain.RiskModerate), "Risk level used for the gauge color (Low, Moderate, High)")
	f.StringVar(&gaugeFlags.svg, "svg", "", "Write the gauge as SVG to this path (- for stdout)")
}

func runGauge(cmd *cobra.Command, args []string) error {
	score, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("score must be an integer: %w", err)
	}
	spec := gauge.Render(score, gauge.ColorFor(domain.RiskLevel(gaugeFlags.level)))

	out := cmd.OutOrStdout()
	switch gaugeFlags.svg {
	case "":
	case "-":
		fmt.Fprintln(out, spec.SVG())
		return nil
	default:
		if err := os.WriteFile(gaugeFlags.svg, []byte(spec.SVG()), 0o644); err != nil {
			return fmt.Errorf("write gauge svg: %w", err)
		}
	}

	fmt.Fprintf(out, "Score:          %d\n", spec.Score)
	fmt.Fprintf(out, "Color:          %s\n", spec.Color)
	fmt.Fprintf(out, "Circumference:  %.2f\n", spec.Circumference)
	fmt.Fprintf(out, "Filled:         %.2f\n", spec.Filled)
	fmt.Fprintf(out, "Dash offset:    %.2f\n", spec.DashOffset)
	fmt.Fprintln(out, spec.Bar(30))
	return nil
}
