package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	genModel  string
	genCount  int
	genSep    string
	genMaxLen int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sequences from a trained model",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if genModel == "" {
			return fmt.Errorf("--model is required")
		}

		c, err := store.Load(ctx, genModel, newSource())
		if err != nil {
			return err
		}
		c.SetLogger(logger)

		sep := genSep
		if !cmd.Flags().Changed("sep") {
			sep = cfg.Separator
		}

		for i := 0; i < genCount; i++ {
			seq, err := c.Generate()
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			// --max-len truncates the finished sequence; it does not alter
			// sampling or termination.
			if genMaxLen > 0 && len(seq) > genMaxLen {
				seq = seq[:genMaxLen]
			}
			fmt.Println(strings.Join(seq, sep))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genModel, "model", "", "name of the model to sample")
	generateCmd.Flags().IntVar(&genCount, "count", 1, "number of sequences to generate")
	generateCmd.Flags().StringVar(&genSep, "sep", " ", "separator between output symbols (default from config)")
	generateCmd.Flags().IntVar(&genMaxLen, "max-len", 0, "truncate output to at most this many symbols (0 = unlimited)")
	rootCmd.AddCommand(generateCmd)
}
