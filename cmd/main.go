package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	baseURL    string
}

var rootCmd = &cobra.Command{
	Use:   "health-companion",
	Short: "Terminal client for the health report assistant",
	Long: "health-companion chats with the health assistant, uploads lab reports for\n" +
		"risk analysis and raises an emergency alert when a critical score comes back.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&rootFlags.baseURL, "base-url", "", "Assistant base URL (overrides config)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(gaugeCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(stubCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
