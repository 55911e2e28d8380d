package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/krissolling/delli-data/internal/model"
)

// PriceToCents converts a decimal price string to integer cents.
// "12.50" -> 1250, "12.5" -> 1250, "12" -> 1200
// Returns 0 for empty or invalid input.
func PriceToCents(price string) int64 {
	price = strings.TrimSpace(price)
	if price == "" {
		return 0
	}

	f, err := strconv.ParseFloat(price, 64)
	if err != nil || f < 0 {
		return 0
	}

	// Multiply by 100 and round to int
	return int64(f*100 + 0.5)
}

// CentsToPrice formats integer cents as a dollar string: 1250 -> "$12.50".
func CentsToPrice(cents int64) string {
	return "$" + strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// ParseTimestamp parses an ISO 8601 timestamp to microseconds since epoch.
// Returns 0 for empty or invalid input.
func ParseTimestamp(iso string) int64 {
	if iso == "" {
		return 0
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return 0
		}
	}

	return t.UnixMicro()
}

// NowMicro returns the current time in microseconds since epoch.
func NowMicro() int64 {
	return time.Now().UnixMicro()
}

// ToModel reduces an APIProduct to the tracked summary.
//
// Price and compare-at price come from the first variant (most
// products have exactly one). A product counts as available when any
// variant is available. A product is on sale when both prices parse
// and the compare-at price exceeds the price.
func (p *APIProduct) ToModel() model.Product {
	var priceCents, compareAtCents int64
	available := false

	if len(p.Variants) > 0 {
		first := p.Variants[0]
		priceCents = PriceToCents(first.Price)
		if first.CompareAtPrice != nil {
			compareAtCents = PriceToCents(*first.CompareAtPrice)
		}
		for _, v := range p.Variants {
			if v.Available {
				available = true
				break
			}
		}
	}

	onSale := priceCents > 0 && compareAtCents > priceCents

	imageURL := ""
	if len(p.Images) > 0 {
		imageURL = p.Images[0].Src
	}

	return model.Product{
		ID:             p.ID,
		Handle:         p.Handle,
		Title:          p.Title,
		Vendor:         p.Vendor,
		ProductType:    p.ProductType,
		PriceCents:     priceCents,
		CompareAtCents: compareAtCents,
		OnSale:         onSale,
		Available:      available,
		Tags:           p.Tags,
		ImageURL:       imageURL,
		VariantCount:   len(p.Variants),
		CreatedTS:      ParseTimestamp(p.CreatedAt),
		UpdatedTS:      ParseTimestamp(p.UpdatedAt),
	}
}
