package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vitalvas/specforge/internal/demo"
	"github.com/vitalvas/specforge/openapi"
	"gopkg.in/yaml.v3"
)

type dumpOptions struct {
	Endpoint string
	Format   string
}

func writeDocument(w io.Writer, doc openapi.Document, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(doc)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid --format %q (expected json or yaml)", format)
	}
}

func newDumpCmd() *cobra.Command {
	opts := &dumpOptions{Format: "json"}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print an assembled document of the demo API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			a, err := app.newApp(demo.Options{})
			if err != nil {
				return err
			}

			endpoint := opts.Endpoint
			if endpoint == "" {
				specs := a.Swagger.Config().Specs
				if len(specs) == 0 {
					return errors.New("no spec configured")
				}
				endpoint = specs[0].Endpoint
			}

			doc, err := a.Swagger.Spec(cmd.Context(), endpoint)
			if err != nil {
				return err
			}

			return writeDocument(cmd.OutOrStdout(), doc, opts.Format)
		},
	}

	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "Spec endpoint name (default: the first configured spec)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", opts.Format, "Output format: json or yaml")

	return cmd
}
