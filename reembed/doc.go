// Package reembed fills the embedding cache for stored article batches.
//
// It is used after ingestion to warm the cache for a new batch, and from the
// command line to rebuild every vector after the embedding model changes.
// Articles are embedded in chunks with retry and exponential backoff, vectors
// are normalized before they are stored, and progress is reported to a writer.
package reembed
