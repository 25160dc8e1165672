// Package ingestion scrapes news feeds into stored article batches.
//
// The Pipeline type manages the ingestion workflow:
//   - Fetching every configured feed concurrently (gofeed)
//   - Downloading each article page and extracting its main text (goquery)
//   - Filling missing fields with placeholders and storing one batch
//   - Publishing the batch to the article store
//   - Warming the embedding cache for the new batch asynchronously
//
// A Scheduler runs the pipeline on an interval and prunes old batches.
// Import loads a previously saved scrape file as a batch.
//
// A feed that cannot be fetched is logged and skipped. Errors during async
// processing are logged but do not fail the ingestion.
package ingestion
