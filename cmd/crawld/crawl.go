package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openengine/crawler/coordination"
	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/orchestrator"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/vectorstore"
)

var (
	crawlRegex   []string
	crawlMaxIter int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run a single foreground crawl, bypassing the admin HTTP control plane",
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().StringSliceVar(&crawlRegex, "regex", nil, "whitelist regex patterns (defaults to each seed site's origin)")
	crawlCmd.Flags().IntVar(&crawlMaxIter, "max-iter", -1, "cap on fetcher/processor iterations (-1 for unbounded)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
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

	if err := vec.EnsureCollection(context.Background()); err != nil {
		return fmt.Errorf("ensuring embeddings collection: %w", err)
	}

	messages := coordination.NewMessageChannel()
	go func() {
		for line := range messages.Drain() {
			fmt.Println(line)
		}
	}()

	o := orchestrator.New(orchestrator.Config{
		RevisitDelta:   cfg.RevisitDelta,
		FetchTimeout:   cfg.FetchTimeout,
		MaxIterations:  crawlMaxIter,
		RegexWhitelist: crawlRegex,
		RelStore:       rel,
		VectorStore:    vec,
		Embeddings:     embedding.New(cfg.EmbeddingServiceURL),
		Messages:       messages,
		Logger:         logger,
	})
	return o.Run(context.Background())
}
