package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportModel string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a model as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportModel == "" {
			return fmt.Errorf("--model is required")
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOut, err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		return store.Export(cmd.Context(), exportModel, out)
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Import JSON models, merging into existing ones by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 0 {
			return store.Import(ctx, os.Stdin)
		}
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			err = store.Import(ctx, f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", path, err)
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportModel, "model", "", "name of the model to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
