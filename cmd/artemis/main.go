package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"artemis/internal/assistant"
	"artemis/internal/config"
	"artemis/internal/server"
	"artemis/internal/store"
	"artemis/internal/task"
)

var (
	// Global flags
	cfgPath string
	addr    string
	verbose bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "artemis",
	Short: "ARTEMIS - conversational task board",
	Long: `ARTEMIS is a task management service with a natural-language
assistant. The assistant turns free-text requests into structured task
operations, proposes them back for explicit confirmation, and only then
applies them to the board.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
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
		return runServe(cmd.Context())
	},
}

// serveCmd runs the HTTP service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ARTEMIS HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// initCmd writes a starter configuration file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing config at %s", cfgPath)
		}
		cfg := config.DefaultConfig()
		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", cfgPath)
		return nil
	},
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no LLM API key configured: set GEMINI_API_KEY or llm.api_key")
	}

	// The live config is swapped atomically on hot reload; everything
	// downstream reads through cfgFn.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)
	cfgFn := current.Load

	st, err := store.Open(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	llm, err := assistant.NewGeminiClient(ctx, assistant.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.GetLLMTimeout(),
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	executor := assistant.NewExecutor(st, logger)
	pipeline := assistant.NewPipeline(llm, executor, func() task.Taxonomy {
		return cfgFn().Board.Taxonomy()
	}, logger)

	srv := server.New(cfgFn, st, pipeline, logger)

	watcher, err := config.NewWatcher(cfgPath, logger, func(next *config.Config) {
		current.Store(next)
		logger.Info("configuration reloaded")
	})
	if err != nil {
		logger.Warn("config watcher unavailable, hot reload disabled", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	if watcher != nil {
		g.Go(func() error { return watcher.Start(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		if watcher != nil {
			watcher.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfgFn().GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "artemis.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "Listen address override")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
