package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wren/internal/analysis"
	"wren/internal/checkpoint"
	"wren/internal/completion"
	"wren/internal/config"
	"wren/internal/interview"
	"wren/internal/profile"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wren",
	Short: "Wren - conversational literary taste profiler",
	Long: `Wren interviews a reader about what they love to read and distills the
conversation into a structured taste profile.

An interview runs at most 12 respondent turns; it ends earlier once the
conversation has covered enough ground. Sessions checkpoint after every
turn and can be resumed by id until their checkpoint expires.

Run without arguments to start an interactive interview.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Optional; credentials usually arrive via a .env file in dev.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

// engine bundles the wired controller with the store it persists to, so
// subcommands that need store-level operations (TTL inspection, purge)
// can reach past the controller.
type engine struct {
	ctrl  *interview.Controller
	store checkpoint.Store
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		logger.Warn("failed to close checkpoint store", zap.Error(err))
	}
}

// newStore builds the configured checkpoint store. A store that cannot be
// reached at startup degrades to in-memory with a warning instead of
// refusing to run; sessions then live only as long as the process.
func newStore(ctx context.Context) checkpoint.Store {
	switch cfg.Checkpoint.Driver {
	case "redis":
		primary, err := checkpoint.NewRedis(ctx, checkpoint.RedisConfig{
			Addr:     cfg.Checkpoint.RedisAddr,
			Password: cfg.Checkpoint.RedisPassword,
			DB:       cfg.Checkpoint.RedisDB,
		})
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory checkpointing", zap.Error(err))
			return checkpoint.NewMemory()
		}
		return checkpoint.NewFallback(primary, logger)
	case "sqlite":
		primary, err := checkpoint.NewSQLite(cfg.Checkpoint.DBPath)
		if err != nil {
			logger.Warn("sqlite unavailable, falling back to in-memory checkpointing", zap.Error(err))
			return checkpoint.NewMemory()
		}
		return checkpoint.NewFallback(primary, logger)
	default:
		return checkpoint.NewMemory()
	}
}

// newEngine wires the full interview engine from the loaded config.
func newEngine(ctx context.Context) (*engine, error) {
	backend, err := completion.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	var scorer analysis.FeatureScorer
	if cfg.Interview.ScoreResponses {
		scorer = analysis.NewLLMScorer(backend)
	} else {
		scorer = analysis.HeuristicScorer{}
	}
	analyzer := analysis.NewAnalyzer(
		analysis.NewTopicCoverage(cfg.Interview.ReadinessThreshold, cfg.Interview.MinTurns),
		scorer,
		logger,
	)

	store := newStore(ctx)
	ctrl := interview.NewController(
		store,
		backend,
		analyzer,
		profile.NewSynthesizer(backend, logger),
		cfg.Interview,
		cfg.Checkpoint.TTLDuration(),
		logger,
	)
	return &engine{ctrl: ctrl, store: store}, nil
}

// newViewer wires a read-only engine: store-backed lookups with no
// completion backend, so viewer commands work without credentials.
// Never call Step on it.
func newViewer(ctx context.Context) *engine {
	store := newStore(ctx)
	ctrl := interview.NewController(store, nil, nil, nil, cfg.Interview, cfg.Checkpoint.TTLDuration(), logger)
	return &engine{ctrl: ctrl, store: store}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "wren.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(transcriptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
