package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aveline-dev/chaingen/pkg/chain"
	"github.com/aveline-dev/chaingen/pkg/chainstore"
)

var (
	trainModel  string
	trainOrder  int
	trainWeight uint64
)

var trainCmd = &cobra.Command{
	Use:   "train [file...]",
	Short: "Train a model on text files (or stdin), one sequence per line",
	Long: `Train folds each non-empty line of the inputs into the named model as one
whitespace-separated word sequence. If the model already exists in the
database it is loaded first, so training is incremental; otherwise a new
model is created with the given order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if trainModel == "" {
			return fmt.Errorf("--model is required")
		}

		order := trainOrder
		if order < 0 {
			order = cfg.DefaultOrder
		}

		c, err := store.Load(ctx, trainModel, newSource())
		switch {
		case errors.Is(err, chainstore.ErrModelNotFound):
			c = chain.New[string](order, newSource())
		case err != nil:
			return err
		case cmd.Flags().Changed("order") && c.Order() != order:
			return fmt.Errorf("model '%s' has order %d, cannot retrain with order %d", trainModel, c.Order(), order)
		}
		c.SetLogger(logger)

		var sequences int
		trainReader := func(r io.Reader) error {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				fields := strings.Fields(scanner.Text())
				if len(fields) == 0 {
					continue
				}
				c.TrainWeighted(fields, trainWeight)
				sequences++
			}
			return scanner.Err()
		}

		if len(args) == 0 {
			if err := trainReader(os.Stdin); err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
		}
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			err = trainReader(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
		}

		if err := store.Save(ctx, trainModel, c); err != nil {
			return fmt.Errorf("failed to save model '%s': %w", trainModel, err)
		}

		logger.InfoContext(ctx, "Training completed",
			slog.String("model_name", trainModel),
			slog.Int("sequences", sequences),
			slog.Int("states", c.Stats().States),
		)
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainModel, "model", "", "name of the model to train")
	trainCmd.Flags().IntVar(&trainOrder, "order", -1, "chain order for a new model (default from config)")
	trainCmd.Flags().Uint64Var(&trainWeight, "weight", 1, "repetition weight per sequence")
	rootCmd.AddCommand(trainCmd)
}
