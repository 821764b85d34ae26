package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"health-companion/internal/stub"
)

var stubFlags struct {
	addr string
}

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local stand-in for the assistant backend",
	Long: `Serves /chatbot and /analyze-multiple on --addr. Uploaded reports must be
JSON fixtures: {"risk_score": 85, "risk_level": "High", "values": {"hemoglobin": 9.1}}.`,
	RunE: runStub,
}

func init() {
	stubCmd.Flags().StringVar(&stubFlags.addr, "addr", "127.0.0.1:5000", "Listen address")
}

func runStub(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              stubFlags.addr,
		Handler:           stub.NewServer().Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("stub backend listening", "addr", stubFlags.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
