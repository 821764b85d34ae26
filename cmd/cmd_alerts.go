package main

import (
	"github.com/spf13/cobra"
)

var alertsFlags struct {
	limit int
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List emergency alerts recorded in the journal, newest first",
	RunE:  runAlerts,
}

func init() {
	alertsCmd.Flags().IntVar(&alertsFlags.limit, "limit", 20, "Maximum number of alerts to list")
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if a.journal == nil {
		return errNoJournal
	}
	records, err := a.journal.ListAlerts(ctx, a.cfg.Journal.ClientID, alertsFlags.limit)
	if err != nil {
		return err
	}
	a.console.PrintAlerts(records)
	return nil
}
