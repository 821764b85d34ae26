package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/mattn/go-isatty"

	"health-companion/internal/alert"
	"health-companion/internal/config"
	"health-companion/internal/integrations/analyzer"
	"health-companion/internal/integrations/paramstore"
	"health-companion/internal/repository"
	"health-companion/internal/speech"
	"health-companion/internal/terminal"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg       *config.Config
	console   *terminal.Console
	analyzer  *analyzer.Client
	journal   *repository.Client
	speech    *speech.Dispatcher
	presenter *alert.Presenter
}

// loadConfig reads the config file and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))
	return cfg, nil
}

// applyOverrides layers the parameter store overlay and then the command-line
// flags over cfg, so an explicit flag always wins. overlay may be nil.
func applyOverrides(ctx context.Context, cfg *config.Config, overlay config.PathGetter) error {
	if overlay != nil {
		if err := cfg.ApplyOverlay(ctx, overlay); err != nil {
			return err
		}
	}
	if rootFlags.baseURL != "" {
		cfg.Remote.BaseURL = rootFlags.baseURL
	}
	return cfg.Validate()
}

func newApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	// ---- AWS clients (only when a feature needs them) ----
	var params *paramstore.Client
	if cfg.Remote.ParamPrefix != "" || cfg.Journal.Table != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		if cfg.Remote.ParamPrefix != "" {
			params, err = paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				return nil, fmt.Errorf("create SSM client: %w", err)
			}
		}
		if cfg.Journal.Table != "" {
			a.journal, err = repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.Journal.Table)
			if err != nil {
				return nil, fmt.Errorf("create alert journal: %w", err)
			}
		}
	}

	var overlay config.PathGetter
	if params != nil {
		overlay = params
	}
	if err := applyOverrides(ctx, cfg, overlay); err != nil {
		return nil, err
	}

	// ---- Remote assistant ----
	opts := []analyzer.Option{analyzer.WithTimeout(cfg.Remote.Timeout)}
	if params != nil {
		opts = append(opts, analyzer.WithParamStore(params, cfg.Remote.ParamPrefix))
	}
	a.analyzer, err = analyzer.NewClient(cfg.Remote.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create analyzer client: %w", err)
	}

	// ---- Presentation ----
	var synth speech.Synthesizer
	if cfg.Speech.Enabled {
		cs := speech.NewCommandSynthesizer(cfg.Speech.Command)
		if !cs.Available() {
			slog.Info("no text-to-speech command found, voice alerts disabled")
		}
		synth = cs
	}
	a.speech = speech.NewDispatcher(synth)
	a.console = terminal.New(out, terminal.WithColors(isTerminal(out)))

	var presenterOpts []alert.Option
	if a.journal != nil {
		presenterOpts = append(presenterOpts, alert.WithJournal(a.journal, cfg.Journal.ClientID))
	}
	a.presenter, err = alert.NewPresenter(a.console, a.speech, presenterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create alert presenter: %w", err)
	}
	return a, nil
}

var errNoJournal = errors.New("alert journal is not configured (set journal.table or ALERT_TABLE)")

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
