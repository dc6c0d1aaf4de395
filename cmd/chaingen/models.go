package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aveline-dev/chaingen/pkg/chainstore"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List stored models with their statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}

		slices.SortFunc(stats.Models, func(a, b chainstore.ModelInfo) int {
			return strings.Compare(a.Name, b.Name)
		})

		for _, m := range stats.Models {
			s := stats.Stats[m.Id]
			fmt.Printf("%-24s order=%-2d transitions=%-8d weight=%d\n", m.Name, m.Order, s.Transitions, s.TotalWeight)
		}
		fmt.Printf("%d model(s), %d symbol(s), %d state(s)\n", len(stats.Models), stats.SymbolCount, stats.StateCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
