package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vitalvas/specforge/internal/demo"
)

// serverOptions allows server options to be overridden.
type serverOptions struct {
	// ListenAddress tells the server what to listen on.
	ListenAddress string

	// ReadTimeout defines how long before we give up on the client,
	// this should be fairly short.
	ReadTimeout time.Duration

	// ReadHeaderTimeout defines how long before we give up on the client
	// sending headers.
	ReadHeaderTimeout time.Duration

	// WriteTimeout defines how long we take to respond before we give up.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds the graceful shutdown on SIGINT and SIGTERM.
	ShutdownTimeout time.Duration

	// MetricsPath serves the Prometheus metrics. Empty disables them.
	MetricsPath string
}

// AddFlags allows server options to be modified.
func (o *serverOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.ListenAddress, "server-listen-address", ":6080", "API listener address.")
	f.DurationVar(&o.ReadTimeout, "server-read-timeout", time.Second, "How long to wait for the client to send the request body.")
	f.DurationVar(&o.ReadHeaderTimeout, "server-read-header-timeout", time.Second, "How long to wait for the client to send headers.")
	f.DurationVar(&o.WriteTimeout, "server-write-timeout", 10*time.Second, "How long to wait for the API to respond to the client.")
	f.DurationVar(&o.ShutdownTimeout, "server-shutdown-timeout", 15*time.Second, "How long to wait for in-flight requests on shutdown.")
	f.StringVar(&o.MetricsPath, "metrics-path", "/metrics", "Path of the Prometheus metrics endpoint, empty to disable.")
}

// newServer returns the HTTP server for handler.
func (o *serverOptions) newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              o.ListenAddress,
		ReadTimeout:       o.ReadTimeout,
		ReadHeaderTimeout: o.ReadHeaderTimeout,
		WriteTimeout:      o.WriteTimeout,
		Handler:           handler,
	}
}

// newHandler builds the demo application and mounts the metrics endpoint
// next to it.
func newHandler(app *appState, opts *serverOptions) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.newApp(demo.Options{Registerer: reg})
	if err != nil {
		return nil, err
	}

	if opts.MetricsPath != "" {
		a.Router.Method(http.MethodGet, opts.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	return a, nil
}

func newServeCmd() *cobra.Command {
	opts := &serverOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo API with its documents and docs UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			handler, err := newHandler(app, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := opts.newServer(handler)

			errCh := make(chan error, 1)
			go func() {
				app.log.Info("service starting", "address", opts.ListenAddress, "metrics", opts.MetricsPath)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			app.log.Info("service stopping")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
			defer cancel()

			return server.Shutdown(shutdownCtx)
		},
	}

	opts.AddFlags(cmd.Flags())

	return cmd
}
