// Package store persists catalog snapshots and change history.
//
// Three backends share one interface:
//   - json: flat files in a data directory (products.json,
//     latest_changes.json, history.json), written atomically
//   - sqlite: a single-file database via modernc.org/sqlite
//   - postgres: a pgx connection pool
//
// All backends keep exactly one current snapshot and a bounded run
// history: the most recent history_limit runs that detected changes.
package store
