package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lifeband/edgeai/internal/config"
	"github.com/lifeband/edgeai/internal/detect"
	"github.com/lifeband/edgeai/internal/logging"
	"github.com/lifeband/edgeai/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lifeband",
	Short: "Edge risk detection for LifeBand vitals",
	Long: "lifeband classifies heart rhythm and scores anemia and preeclampsia risk from " +
		"wearable vitals, using on-device models when present and clinical rules otherwise.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to the journal database (overrides LIFEBAND_DB env var; enables the journal)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("model-dir", "", "Directory holding <model>_risk_model.json files")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config and applies flag overrides on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if dir, _ := cmd.Flags().GetString("model-dir"); dir != "" {
		cfg.Inference.ModelDir = dir
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = db
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *logging.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}

// resolveDBPath returns the journal path from config (which --db feeds),
// then LIFEBAND_DB, then the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if p := cfg.Journal.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openJournal opens the journal store when it is enabled. The returned
// store is nil otherwise.
func openJournal(cfg config.Config) (*store.Store, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return s, nil
}

// newEngine builds and initializes a detection engine from cfg. A non-nil
// journal receives every event.
func newEngine(ctx context.Context, cfg config.Config, log zerolog.Logger, journal *store.Store, extra ...detect.Observer) (*detect.Engine, error) {
	backends, err := detect.NewBackends(cfg.Backend())
	if err != nil {
		return nil, fmt.Errorf("build backends: %w", err)
	}

	opts := []detect.Option{detect.WithLogger(log)}
	if journal != nil {
		opts = append(opts, detect.WithObserver(detect.JournalObserver(journal.EventRepo())))
	}
	for _, o := range extra {
		opts = append(opts, detect.WithObserver(o))
	}

	eng := detect.New(backends, opts...)
	eng.Initialize(ctx)
	return eng, nil
}
