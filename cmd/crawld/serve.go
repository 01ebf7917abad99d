package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/openengine/crawler/admin"
	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/vectorstore"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP API (spec.md §6)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDie()
	logger := newLogger(cfg.Dev)
	defer logger.Sync()

	rel, err := store.Open(store.DSN(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB))
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer rel.Close()

	vec, err := vectorstore.Dial(cfg.QdrantURL, cfg.QdrantPort)
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	defer vec.Close()

	server := admin.NewServer(admin.Config{
		SecretKey:    cfg.SecretKey,
		Algorithm:    cfg.Algorithm,
		Dev:          cfg.Dev,
		RevisitDelta: cfg.RevisitDelta,
		FetchTimeout: cfg.FetchTimeout,
	}, rel, vec, embedding.New(cfg.EmbeddingServiceURL), logger)

	addr := fmt.Sprintf(":%d", servePort)
	logger.Sugar().Infof("admin api listening on %s", addr)
	return http.ListenAndServe(addr, server.Routes())
}
