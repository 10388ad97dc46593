package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scene-file]",
		Short: "Check a JSON or YAML scene file without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c3ml.Load(args[0])
			if err != nil {
				return err
			}
			if err := c3ml.ValidateDocument(doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entities OK\n", args[0], len(doc.Entities))
			return nil
		},
	}
}
