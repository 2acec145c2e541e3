package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BartekS5/flightetl/internal/cli"
	"github.com/BartekS5/flightetl/internal/config"
	"github.com/BartekS5/flightetl/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("ERROR: invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(&cli.App{Config: cfg, Log: zl})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		zl.Error("Command failed", "error", err)
		stop()
		_ = zl.Sync()
		os.Exit(1)
	}
}
