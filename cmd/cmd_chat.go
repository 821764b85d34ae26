package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"health-companion/internal/alert"
	"health-companion/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the health assistant",
	Long: `Reads one message per line from stdin and sends each as its own turn.
Turns run concurrently; replies appear as they arrive.

  /contacts  print emergency contacts
  /dismiss   close the emergency alert
  /quit      wait for pending replies and exit`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.speech.Stop()

	client, err := usecase.NewExchangeClient(a.analyzer, a.console, a.speech, a.presenter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to %s. Type /quit to exit.\n", a.cfg.Remote.BaseURL)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			client.Wait()
			return nil
		case "/dismiss":
			if a.presenter.Dismiss(ctx) {
				fmt.Fprintln(out, "emergency alert dismissed")
			} else {
				fmt.Fprintln(out, "no alert to dismiss")
			}
		case "/contacts":
			a.console.PrintContacts(alert.EmergencyContacts())
		default:
			client.Go(ctx, line)
		}
	}
	client.Wait()
	return scanner.Err()
}
