package main

import (
	"log/slog"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/internal/demo"
	"github.com/aretw0/pergola/internal/logging"
	redisadapter "github.com/aretw0/pergola/pkg/adapters/redis"
	"github.com/aretw0/pergola/pkg/middleware"
)

// buildEngine assembles the engine the CLI commands share: logging
// middleware, the demo toolset and, when configured, a Redis-backed lock so
// destructive serialization spans replicas.
func buildEngine(cmd *cobra.Command) (*pergola.Engine, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level, _ = cmd.Flags().GetString("log-level")
	}
	logger := logging.New(logging.ParseLevel(level))

	opts := []pergola.Option{
		pergola.WithLogger(logger),
		pergola.WithMiddleware(middleware.Logging(logger)),
	}

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		opts = append(opts, pergola.WithLocker(redisadapter.NewLocker(client, cfg.Redis.Prefix)))
		logger.Info("distributed locking enabled", "addr", cfg.Redis.Addr)
	}

	engine := pergola.New(opts...)
	engine.MustRegister(demo.UsersTool(demo.NewStore()))
	return engine, logger, nil
}
