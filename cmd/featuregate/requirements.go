package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

func newRequirementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requirements",
		Aliases: []string{"reqs"},
		Short:   "Inspect and validate the requirements matrix",
	}
	cmd.AddCommand(newRequirementsShowCmd(), newRequirementsValidateCmd())
	return cmd
}

func newRequirementsShowCmd() *cobra.Command {
	var (
		layer     string
		operation string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the requirements matrix loaded from the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "yaml" && output != "json" {
				return fmt.Errorf("%w: unknown output format %q", errInvalidArgs, output)
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				resolver, err := a.openResolver(ctx)
				if err != nil {
					return err
				}
				m, err := resolver.All(ctx)
				if err != nil {
					return err
				}

				entries := m.Entries()
				if layer != "" || operation != "" {
					l, err := requirements.ParseLayer(layer)
					if err != nil {
						return err
					}
					entries = m.For(l, operation)
				}

				if output == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if entries == nil {
						entries = []requirements.Entry{}
					}
					return enc.Encode(entries)
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(documentOf(entries)); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "only show rules for this layer (repository, service, api)")
	cmd.Flags().StringVar(&operation, "operation", "", "only show rules for this operation (requires --layer)")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func newRequirementsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Validate a requirements file, or the configured source, against the flag directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var (
					source requirements.Source
					err    error
				)
				if len(args) == 1 {
					source = requirements.NewFileSource(args[0])
				} else if source, err = a.openSource(ctx); err != nil {
					return err
				}

				doc, err := source.Load(ctx)
				if err != nil {
					return err
				}
				m, err := requirements.Parse(doc, a.dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requirements OK: %d rules, %d flags\n", m.Len(), len(m.Flags()))
				return nil
			})
		},
	}
}

func documentOf(entries []requirements.Entry) requirements.Document {
	doc := requirements.Document{}
	for _, e := range entries {
		doc.Add(e.Flag, e.Layer, e.Operation, e.Subtypes()...)
	}
	return doc
}
