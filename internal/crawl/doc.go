// Package crawl implements the crawl control core: frontier management,
// depth-bounded breadth-first traversal, concurrency-limited fetch dispatch,
// deduplication, percentage-based link sampling, longest-unique-path tracking,
// and resumable persisted state.
//
// The Coordinator owns all shared mutable state (visited set, frontier, path
// tracker). Workers only receive targets and submit outcomes through a single
// intake channel, so no fine-grained locking is needed across the pool.
package crawl
