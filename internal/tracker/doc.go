// Package tracker orchestrates the fetch → diff → persist pipeline.
//
// A run:
//   - loads the previous snapshot from the store
//   - fetches the current catalog from the storefront
//   - aborts if the fetch returned nothing (a failed fetch must not
//     record the whole catalog as removed)
//   - diffs previous against current and persists both
//
// Daemon mode repeats runs on a fixed interval with graceful shutdown.
package tracker
