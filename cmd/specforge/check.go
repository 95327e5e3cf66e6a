package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitalvas/specforge/fragment"
	"github.com/vitalvas/specforge/internal/demo"
	"github.com/vitalvas/specforge/openapi"
	"gopkg.in/yaml.v3"
)

// readDocument loads a JSON or YAML document file.
func readDocument(path string) (openapi.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	doc, ok := fragment.Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse %s: document is not a mapping", path)
	}
	return openapi.Document(doc), nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate document files, or every document of the demo API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			docs := make(map[string]openapi.Document)
			var names []string

			if len(args) > 0 {
				for _, path := range args {
					doc, err := readDocument(path)
					if err != nil {
						return err
					}
					docs[path] = doc
					names = append(names, path)
				}
			} else {
				a, err := app.newApp(demo.Options{})
				if err != nil {
					return err
				}
				for _, spec := range a.Swagger.Config().Specs {
					doc, err := a.Swagger.Spec(cmd.Context(), spec.Endpoint)
					if err != nil {
						return err
					}
					docs[spec.Endpoint] = doc
					names = append(names, spec.Endpoint)
				}
			}

			failed := 0
			for _, name := range names {
				if err := openapi.Check(cmd.Context(), docs[name]); err != nil {
					failed++
					app.log.Error(err, "document check failed", "document", name)
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", name)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed the check", failed, len(names))
			}
			return nil
		},
	}
}
