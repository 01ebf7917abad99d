package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openengine/crawler/env"
)

var rootCmd = &cobra.Command{
	Use:   "crawld",
	Short: "Self-hosted semantic web crawl/index pipeline",
	Long: `crawld runs the crawl/index pipeline described in the project spec:
a Fetcher and Processor pair coordinating over shared queues, persisting
pages to Postgres and their embeddings to Qdrant, fronted by an admin
HTTP API.`,
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigOrDie is shared setup for every subcommand that touches the
// environment: load .env (if present) and build the process-wide Config.
func loadConfigOrDie() *env.Config {
	cfg, err := env.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(dev bool) *zap.Logger {
	if dev {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
