package model

import "github.com/google/uuid"

// -----------------------------------------------------------------------------
// Catalog Types
// -----------------------------------------------------------------------------

// Product is the tracked summary of a storefront product.
type Product struct {
	ID          int64  `json:"id"`           // Shopify product ID (primary key)
	Handle      string `json:"handle"`       // URL slug (e.g., "hot-honey")
	Title       string `json:"title"`        // Display title
	Vendor      string `json:"vendor"`       // Maker / brand
	ProductType string `json:"product_type"` // Storefront category

	// Pricing (cents). Taken from the first variant; 0 when absent.
	PriceCents     int64 `json:"price_cents"`
	CompareAtCents int64 `json:"compare_at_cents"`
	OnSale         bool  `json:"on_sale"` // CompareAtCents > PriceCents, both known

	// Available is true if any variant is purchasable.
	Available bool `json:"available"`

	Tags         []string `json:"tags,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"` // First image, empty if none
	VariantCount int      `json:"variant_count"`

	// Timing (µs since epoch)
	CreatedTS int64 `json:"created_ts"`
	UpdatedTS int64 `json:"updated_ts"`
}

// Snapshot is the full catalog state captured by one run.
type Snapshot struct {
	RunID     uuid.UUID `json:"run_id"`
	FetchedAt int64     `json:"fetched_at"` // µs since epoch
	Products  []Product `json:"products"`
}

// ByID returns the snapshot's products keyed by product ID.
func (s *Snapshot) ByID() map[int64]Product {
	m := make(map[int64]Product, len(s.Products))
	for _, p := range s.Products {
		m[p.ID] = p
	}
	return m
}

// -----------------------------------------------------------------------------
// Change Types
// -----------------------------------------------------------------------------

// ChangeType classifies a detected catalog change.
type ChangeType string

const (
	ChangeNew          ChangeType = "new"
	ChangeRemoved      ChangeType = "removed"
	ChangePrice        ChangeType = "price_change"
	ChangeAvailability ChangeType = "availability_change"
	ChangeSaleStarted  ChangeType = "sale_started"
	ChangeSaleEnded    ChangeType = "sale_ended"
)

// ChangeTypes lists all change types in report order.
var ChangeTypes = []ChangeType{
	ChangeNew,
	ChangeRemoved,
	ChangePrice,
	ChangeAvailability,
	ChangeSaleStarted,
	ChangeSaleEnded,
}

// Label returns a human-readable name for the change type.
func (t ChangeType) Label() string {
	switch t {
	case ChangeNew:
		return "New Products"
	case ChangeRemoved:
		return "Removed Products"
	case ChangePrice:
		return "Price Changes"
	case ChangeAvailability:
		return "Availability Changes"
	case ChangeSaleStarted:
		return "Sales Started"
	case ChangeSaleEnded:
		return "Sales Ended"
	default:
		return string(t)
	}
}

// ChangeDetails carries the type-specific payload of a change.
// Only the fields relevant to the change type are set.
type ChangeDetails struct {
	PriceCents     *int64 `json:"price_cents,omitempty"`      // new, sale_started, sale_ended
	Available      *bool  `json:"available,omitempty"`        // new
	OldPriceCents  *int64 `json:"old_price_cents,omitempty"`  // price_change
	NewPriceCents  *int64 `json:"new_price_cents,omitempty"`  // price_change
	CompareAtCents *int64 `json:"compare_at_cents,omitempty"` // sale_started
	WasAvailable   *bool  `json:"was_available,omitempty"`    // availability_change
	NowAvailable   *bool  `json:"now_available,omitempty"`    // availability_change
}

// Change records one detected difference between two snapshots.
type Change struct {
	ProductID int64         `json:"product_id"`
	Handle    string        `json:"handle"`
	Title     string        `json:"title"`
	Vendor    string        `json:"vendor"`
	Type      ChangeType    `json:"change_type"`
	Details   ChangeDetails `json:"details"`
}

// HistoryEntry records the changes detected by one run.
type HistoryEntry struct {
	RunID     uuid.UUID `json:"run_id"`
	Timestamp int64     `json:"timestamp"` // µs since epoch
	Changes   []Change  `json:"changes"`
}

// Int64Ptr returns a pointer to v, for building ChangeDetails.
func Int64Ptr(v int64) *int64 { return &v }

// BoolPtr returns a pointer to v, for building ChangeDetails.
func BoolPtr(v bool) *bool { return &v }
