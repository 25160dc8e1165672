// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newsroom",
		Usage: "Scrape news feeds and search them with optional semantic clustering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (created with defaults if missing)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides db_path)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search API and refresh feeds on a schedule",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address to listen on (overrides listen)",
					},
					&cli.BoolFlag{
						Name:  "no-refresh",
						Usage: "Serve stored batches without scraping feeds",
					},
					&cli.BoolFlag{
						Name:  "refresh-on-start",
						Usage: "Scrape feeds once before the first scheduled refresh",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Scrape every enabled feed once and store the articles as a batch",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete batches older than the configured retention afterwards",
					},
					&cli.BoolFlag{
						Name:  "no-embed",
						Usage: "Skip warming the embedding cache for the new batch",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a JSON scrape file as a batch",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-embed",
						Usage: "Skip warming the embedding cache for the new batch",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the latest batch",
				ArgsUsage: "TERM",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "sort-by",
						Usage: "Sort key (date, length)",
						Value: "date",
					},
					&cli.StringFlag{
						Name:  "sort-order",
						Usage: "Sort direction (asc, desc)",
						Value: "desc",
					},
					&cli.IntFlag{
						Name:  "min-length",
						Usage: "Minimum full content length in characters",
						Value: 0,
					},
					&cli.StringFlag{
						Name:  "max-length",
						Usage: "Maximum full content length in characters, or 'Infinity'",
						Value: "Infinity",
					},
					&cli.StringFlag{
						Name:  "filter-date",
						Usage: "Only articles published on this date",
					},
					&cli.BoolFlag{
						Name:  "cluster",
						Usage: "Group results by semantic similarity",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print search stages to stderr",
					},
				},
			},
			{
				Name:   "sources",
				Usage:  "List stored batches, newest first",
				Action: sourcesCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of batches to list (0 for all)",
						Value: 0,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Rebuild the embedding cache for stored batches",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides ai.embedding_host)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides ai.embedding_model)",
					},
					&cli.Uint64Flag{
						Name:  "batch",
						Usage: "Only reembed the batch with this ID",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of articles to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N articles",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "skip-cached",
						Usage: "Keep vectors that are already cached",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
