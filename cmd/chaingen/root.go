package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/aveline-dev/chaingen/pkg/chain"
	"github.com/aveline-dev/chaingen/pkg/chainstore"
)

var (
	configPath string
	seed       uint64

	cfg    *Config
	logger *slog.Logger
	db     *sql.DB
	store  *chainstore.Store
)

var rootCmd = &cobra.Command{
	Use:          "chaingen",
	Short:        "Train and sample Markov chain models backed by SQLite",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.LogLevel),
		}))

		db, err = initDB(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err = chainstore.SetupSchema(db); err != nil {
			return fmt.Errorf("failed to set up schema: %w", err)
		}

		store, err = chainstore.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		store.SetLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
		if db != nil {
			_ = db.Close()
		}
	},
}

// newSource returns the random source for chains created or loaded by the
// CLI: a PCG seeded from --seed when given, otherwise randomly.
func newSource() chain.Source {
	if seed != 0 {
		return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "chaingen.json", "path to the config file")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "seed for the random source (0 seeds randomly)")
}
