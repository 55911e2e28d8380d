// Package diff compares two catalog snapshots and reports changes.
//
// Change detection:
//   - products only in the new snapshot report as "new"
//   - products only in the old snapshot report as "removed"
//   - shared products report price, availability, and sale transitions
//
// A single product can emit several changes in one run (e.g., a price
// drop that also starts a sale). Output order is deterministic so runs
// over identical snapshots diff cleanly in version control.
package diff
