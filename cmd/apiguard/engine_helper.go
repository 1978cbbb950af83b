package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"apiguard/internal/config"
	"apiguard/internal/engine"
	"apiguard/internal/export"
	"apiguard/internal/history"
	"apiguard/internal/logging"
)

var (
	engineOnce   sync.Once
	sharedEngine *engine.Engine
	sharedConfig *config.Config
	sharedLogger *logging.Logger
	engineErr    error
)

// getEngine returns a shared Engine instance, lazily initialized on first use.
func getEngine(repoRoot string) (*engine.Engine, *config.Config, *logging.Logger, error) {
	engineOnce.Do(func() {
		cfg, err := config.LoadConfig(repoRoot)
		if err != nil {
			engineErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			engineErr = err
			return
		}

		logger := newLogger(cfg)

		var hist *history.Store
		if cfg.History.Enabled {
			hist, err = history.Open(repoRoot, logger)
			if err != nil {
				// History is an audit convenience, never a reason to refuse a run.
				logger.Warn("Failed to open history database", map[string]interface{}{
					"error": err.Error(),
				})
				hist = nil
			}
		}

		runner := export.NewCommandRunner(time.Duration(cfg.Export.TimeoutMs) * time.Millisecond)
		sharedEngine = engine.NewEngine(repoRoot, cfg, runner, hist, logger)
		sharedConfig = cfg
		sharedLogger = logger
	})

	return sharedEngine, sharedConfig, sharedLogger, engineErr
}

// mustGetEngine returns the shared Engine or exits on error.
func mustGetEngine(repoRoot string) (*engine.Engine, *config.Config, *logging.Logger) {
	eng, cfg, logger, err := getEngine(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return eng, cfg, logger
}

// mustGetRepoRoot resolves the repository root or exits.
func mustGetRepoRoot() string {
	root, err := resolveRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving repository root: %v\n", err)
		os.Exit(1)
	}
	return root
}

// newLogger builds the CLI logger, honoring the --log-level flag over config.
func newLogger(cfg *config.Config) *logging.Logger {
	level := logLevelFlag
	format := "human"
	if cfg != nil {
		if level == "" {
			level = cfg.Logging.Level
		}
		format = cfg.Logging.Format
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(format),
		Level:  logging.ParseLevel(level),
	})
}

// newContext returns the context for one CLI invocation.
func newContext() context.Context {
	return context.Background()
}
