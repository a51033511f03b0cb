// Command tally-relay runs the change-event relay on its own, for
// deployments where the web server and the RabbitMQ publisher are
// scaled separately. It opens the same store the server uses and
// publishes a change event for every transaction mutation it observes.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tally/internal/backend"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/relay"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logConfig := applog.DefaultConfig()
	logConfig.Component = applog.ComponentRelay
	logger := applog.New(logConfig)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the relay")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	st, err := backend.NewFactory(logger.Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer st.Close()

	pub, err := relay.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP publisher", "error", err)
		os.Exit(1)
	}
	defer pub.Close()

	logger.Info("Starting tally-relay",
		"backend", cfg.DataBackend,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	if err := relay.New(st, pub).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Relay error", "error", err)
		os.Exit(1)
	}
	logger.Info("Relay stopped gracefully")
}
