package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/newsroom"
	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/ai/openai"
	"github.com/poiesic/newsroom/cluster"
	"github.com/poiesic/newsroom/config"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/ingestion"
	"github.com/poiesic/newsroom/reembed"
	"github.com/poiesic/newsroom/search"
	"github.com/poiesic/newsroom/server"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// newProvider builds the embedding provider. Tests replace it.
var newProvider = func(config *ai.Config) (ai.AIProvider, error) {
	return openai.NewProvider(config)
}

// loadConfig reads --config and applies the --db override.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath := c.String("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config, aiConfig *ai.Config) (*newsroom.Database, error) {
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	db, err := newsroom.NewDatabase(cfg.ResolvedDBPath(), newsroom.WithProvider(provider))
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func newSearcher(db *newsroom.Database, cfg *config.Config) (*search.Searcher, error) {
	dbscan, err := cluster.NewDBSCAN(
		cluster.WithEps(cfg.Cluster.Eps),
		cluster.WithMinSamples(cfg.Cluster.MinSamples),
	)
	if err != nil {
		return nil, err
	}
	return db.NewSearcher(
		search.WithClusterer(dbscan),
		search.WithClusterTimeout(cfg.ClusterTimeout()),
	)
}

func newPipeline(ctx context.Context, db *newsroom.Database, cfg *config.Config, warmup bool) (*ingestion.Pipeline, error) {
	enabled := cfg.EnabledFeeds()
	feeds := make([]ingestion.Feed, len(enabled))
	for i, f := range enabled {
		feeds[i] = ingestion.Feed{Name: f.Name, URL: f.URL}
	}

	opts := []ingestion.Option{
		ingestion.WithContext(ctx),
		ingestion.WithContentExtractor(ingestion.NewHTMLExtractor(ingestion.WithContentLimit(cfg.ContentLimit))),
	}
	if cfg.PoolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(cfg.PoolSize))
	}
	if !warmup {
		opts = append(opts, ingestion.WithEmbeddingWarmup(nil, nil))
	}
	return db.NewIngestionPipeline(feeds, opts...)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg, cfg.EmbeddingConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := newSearcher(db, cfg)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	pipeline, err := newPipeline(c.Context, db, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	srv, err := server.NewServer(searcher, db.ArticleRepository())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	listen := cfg.Listen
	if c.IsSet("listen") {
		listen = c.String("listen")
	}

	g, ctx := errgroup.WithContext(c.Context)
	if !c.Bool("no-refresh") && len(pipeline.Feeds()) > 0 {
		scheduler, err := ingestion.NewScheduler(pipeline,
			ingestion.WithInterval(cfg.RefreshDuration()),
			ingestion.WithRetention(cfg.RetentionDuration()),
			ingestion.WithRunOnStart(c.Bool("refresh-on-start")),
		)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		g.Go(func() error {
			scheduler.Start(ctx)
			return nil
		})
	}
	g.Go(func() error {
		return srv.Serve(ctx, listen)
	})

	err = g.Wait()
	pipeline.Stop()
	pipeline.Wait()
	return err
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg, cfg.EmbeddingConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c.Context, db, cfg, !c.Bool("no-embed"))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	batch, err := pipeline.Run(c.Context)
	if batch != nil {
		fmt.Fprintf(c.App.Writer, "Stored %s with %d articles\n", batch.Name(), batch.ArticleCount)
	}
	if err != nil {
		pipeline.Wait()
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if c.Bool("prune") {
		deleted, err := pipeline.Prune(c.Context, cfg.RetentionDuration())
		if err != nil {
			pipeline.Wait()
			return fmt.Errorf("pruning failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Pruned %d batches\n", deleted)
	}

	pipeline.Wait()
	return nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one scrape file is required")
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open scrape file: %w", err)
	}
	defer f.Close()

	db, err := openDatabase(cfg, cfg.EmbeddingConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c.Context, db, cfg, !c.Bool("no-embed"))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	opts := &ingestion.ImportOptions{Origin: filepath.Base(path)}
	if fetchedAt, ok := ingestion.FetchedAtFromName(path); ok {
		opts.FetchedAt = fetchedAt
	}

	batch, err := pipeline.Import(c.Context, f, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %s with %d articles\n", batch.Name(), batch.ArticleCount)

	pipeline.Wait()
	return nil
}

func searchCommand(c *cli.Context) error {
	maxLength, err := server.ParseMaxLength(c.String("max-length"))
	if err != nil {
		return fmt.Errorf("invalid max-length %q: must be an integer or 'Infinity'", c.String("max-length"))
	}

	q := core.SearchQuery{
		Term:       strings.Join(c.Args().Slice(), " "),
		SortBy:     core.SortBy(c.String("sort-by")),
		SortOrder:  core.SortOrder(c.String("sort-order")),
		MinLength:  c.Int("min-length"),
		MaxLength:  maxLength,
		FilterDate: c.String("filter-date"),
		Cluster:    c.Bool("cluster"),
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg, cfg.EmbeddingConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := newSearcher(db, cfg)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	var monitor search.SearchMonitor
	if c.Bool("verbose") {
		monitor = newPrintMonitor(c.App.ErrWriter)
	}

	result, err := searcher.SearchWithMonitor(c.Context, q, monitor)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func sourcesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg, cfg.EmbeddingConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	batches, err := db.ArticleRepository().ListBatches(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	if len(batches) == 0 {
		fmt.Fprintln(c.App.Writer, "No batches stored")
		return nil
	}
	for _, batch := range batches {
		fmt.Fprintf(c.App.Writer, "%-6d %s  %5d articles  %s\n", batch.Id, batch.Name(), batch.ArticleCount, batch.Origin)
	}
	fmt.Fprintf(c.App.Writer, "Total: %d\n", len(batches))
	return nil
}

func reembedCommand(c *cli.Context) error {
	// Create reembedding config
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		SkipCached:     c.Bool("skip-cached"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.AI.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.AI.EmbeddingModel = model
	}
	aiConfig := cfg.EmbeddingConfig()

	db, err := openDatabase(cfg, aiConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder := db.NewReembedder(reembedConfig, c.App.ErrWriter)

	// Run reembedding
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.ResolvedDBPath())
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if c.IsSet("batch") {
		err = reembedder.RunBatch(c.Context, core.ID(c.Uint64("batch")))
	} else {
		err = reembedder.Run(c.Context)
	}
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}
