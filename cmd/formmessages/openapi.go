package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formmessages/pkg/catalog"
)

func openapiCmd() *cobra.Command {
	var (
		docPath  string
		schema   string
		property string
		multiple bool
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate a message catalog from an OpenAPI schema property",
		Example: `  formmessages openapi --doc api.yaml --schema Signup --property email > email.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if docPath == "" || schema == "" || property == "" {
				return errors.New("--doc, --schema and --property are required")
			}
			raw, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			doc, err := catalog.FromOpenAPI(cmd.Context(), raw, schema, property)
			if err != nil {
				return err
			}
			doc.Multiple = multiple

			out, err := catalog.Marshal(doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "OpenAPI document (YAML or JSON)")
	cmd.Flags().StringVar(&schema, "schema", "", "component schema name")
	cmd.Flags().StringVar(&property, "property", "", "property name")
	cmd.Flags().BoolVar(&multiple, "multiple", false, "mark the catalog as multiple-message")
	return cmd
}
