package api

import (
	"testing"
)

func TestPriceToCents(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"12.50", 1250},
		{"12.5", 1250},
		{"12", 1200},
		{"0.99", 99},
		{"0.00", 0},
		{"100.00", 10000},
		{"", 0},
		{"invalid", 0},
		{"-5.00", 0},
		{"  12.50  ", 1250},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := PriceToCents(tt.input)
			if got != tt.want {
				t.Errorf("PriceToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCentsToPrice(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{1250, "$12.50"},
		{99, "$0.99"},
		{0, "$0.00"},
		{10000, "$100.00"},
		{1205, "$12.05"},
	}

	for _, tt := range tests {
		if got := CentsToPrice(tt.input); got != tt.want {
			t.Errorf("CentsToPrice(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	// Test empty and invalid
	if got := ParseTimestamp(""); got != 0 {
		t.Errorf("ParseTimestamp(\"\") = %d, want 0", got)
	}
	if got := ParseTimestamp("invalid"); got != 0 {
		t.Errorf("ParseTimestamp(\"invalid\") = %d, want 0", got)
	}

	// Test valid RFC3339
	got := ParseTimestamp("2024-01-15T12:30:45Z")
	if got != 1705321845000000 {
		t.Errorf("ParseTimestamp(\"2024-01-15T12:30:45Z\") = %d, want 1705321845000000", got)
	}

	// Shopify timestamps carry an offset
	got = ParseTimestamp("2024-01-15T12:30:45+00:00")
	if got != 1705321845000000 {
		t.Errorf("ParseTimestamp(offset form) = %d, want 1705321845000000", got)
	}
}

func TestAPIProductToModel(t *testing.T) {
	compareAt := "20.00"
	p := APIProduct{
		ID:          12345,
		Title:       "Hot Honey",
		Handle:      "hot-honey",
		Vendor:      "Bee Co",
		ProductType: "Condiments",
		Tags:        []string{"honey", "spicy"},
		CreatedAt:   "2024-01-15T12:30:45Z",
		UpdatedAt:   "2024-02-01T08:00:00Z",
		Variants: []APIVariant{
			{Price: "15.00", CompareAtPrice: &compareAt, Available: false},
			{Price: "16.00", Available: true},
		},
		Images: []APIImage{
			{Src: "https://cdn.example.com/hot-honey.jpg"},
		},
	}

	m := p.ToModel()

	if m.ID != 12345 {
		t.Errorf("ID = %d, want 12345", m.ID)
	}
	if m.PriceCents != 1500 {
		t.Errorf("PriceCents = %d, want 1500 (first variant)", m.PriceCents)
	}
	if m.CompareAtCents != 2000 {
		t.Errorf("CompareAtCents = %d, want 2000", m.CompareAtCents)
	}
	if !m.OnSale {
		t.Error("OnSale = false, want true")
	}
	if !m.Available {
		t.Error("Available = false, want true (second variant available)")
	}
	if m.ImageURL != "https://cdn.example.com/hot-honey.jpg" {
		t.Errorf("ImageURL = %q", m.ImageURL)
	}
	if m.VariantCount != 2 {
		t.Errorf("VariantCount = %d, want 2", m.VariantCount)
	}
	if m.CreatedTS != 1705321845000000 {
		t.Errorf("CreatedTS = %d, want 1705321845000000", m.CreatedTS)
	}
}

func TestAPIProductToModelNoVariants(t *testing.T) {
	p := APIProduct{ID: 1, Title: "Empty", Handle: "empty"}

	m := p.ToModel()

	if m.PriceCents != 0 {
		t.Errorf("PriceCents = %d, want 0", m.PriceCents)
	}
	if m.Available {
		t.Error("Available = true, want false")
	}
	if m.OnSale {
		t.Error("OnSale = true, want false")
	}
	if m.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty", m.ImageURL)
	}
}

func TestAPIProductToModelNotOnSale(t *testing.T) {
	// Compare-at equal to price is not a sale.
	compareAt := "15.00"
	p := APIProduct{
		ID: 2,
		Variants: []APIVariant{
			{Price: "15.00", CompareAtPrice: &compareAt, Available: true},
		},
	}

	if m := p.ToModel(); m.OnSale {
		t.Error("OnSale = true, want false when compare_at == price")
	}
}
