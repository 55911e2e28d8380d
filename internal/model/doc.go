// Package model defines shared data types used across the Delli catalog tracker.
//
// Conventions:
//   - Prices: integer cents (1250 = $12.50), 0 when unknown
//   - Timestamps: int64 microseconds since Unix epoch
//   - IDs: int64 Shopify product IDs, uuid.UUID for run IDs
package model
