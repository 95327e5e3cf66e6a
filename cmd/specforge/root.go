package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/vitalvas/specforge/internal/demo"
	"github.com/vitalvas/specforge/openapi"
	"go.opentelemetry.io/otel"
)

const application = "specforge"

type rootOptions struct {
	// ConfigFile is a YAML or JSON openapi.Config file.
	ConfigFile string

	// Debug rebuilds documents on every request and enables debug logs.
	Debug bool

	// LogFormat is "text" or "json".
	LogFormat string
}

type appState struct {
	opts rootOptions
	log  logr.Logger
}

type appKey struct{}

func appFrom(cmd *cobra.Command) (*appState, error) {
	a, ok := cmd.Context().Value(appKey{}).(*appState)
	if !ok {
		return nil, errors.New("internal error: app state missing from command context")
	}
	return a, nil
}

// config loads the configuration file over the defaults and applies the
// command line overrides.
func (a *appState) config() (openapi.Config, error) {
	cfg := openapi.DefaultConfig()
	if a.opts.ConfigFile != "" {
		loaded, err := openapi.LoadConfig(a.opts.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if a.opts.Debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

// newApp builds the demo application with the loaded configuration.
func (a *appState) newApp(opts demo.Options) (*demo.App, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	opts.Logger = a.log
	return demo.New(cfg, opts)
}

func newLogger(w io.Writer, format string, debug bool) (logr.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return logr.Discard(), fmt.Errorf("invalid --log-format %q (expected text or json)", format)
	}

	return logr.FromSlogHandler(handler).WithName(application), nil
}

func newRootCmd() *cobra.Command {
	app := &appState{
		opts: rootOptions{LogFormat: "text"},
	}

	root := &cobra.Command{
		Use:   application,
		Short: "Assemble Swagger 2.0 and OpenAPI 3 documents from annotated routes",
		Long: "specforge builds API description documents from the documentation attached to HTTP routes.\n\n" +
			"Examples:\n" +
			"  specforge serve --server-listen-address :8080\n" +
			"  specforge dump --format yaml\n" +
			"  specforge check openapi.json\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), app.opts.LogFormat, app.opts.Debug)
			if err != nil {
				return err
			}
			app.log = log
			otel.SetLogger(log)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, app))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&app.opts.ConfigFile, "config", "c", "", "Config file path (YAML or JSON)")
	root.PersistentFlags().BoolVar(&app.opts.Debug, "debug", false, "Rebuild documents on every request and log at debug level")
	root.PersistentFlags().StringVar(&app.opts.LogFormat, "log-format", app.opts.LogFormat, "Log format: text or json")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newCheckCmd())

	return root
}
