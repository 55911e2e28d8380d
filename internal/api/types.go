package api

// ProductsResponse from GET /products.json
type ProductsResponse struct {
	Products []APIProduct `json:"products"`
}

// APIProduct represents a product from the Shopify storefront API.
type APIProduct struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	Vendor      string   `json:"vendor"`
	ProductType string   `json:"product_type"`
	Tags        []string `json:"tags"`

	// Timestamps (ISO 8601)
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	PublishedAt string `json:"published_at"`

	Variants []APIVariant `json:"variants"`
	Images   []APIImage   `json:"images"`
}

// APIVariant represents a purchasable variant of a product.
// Prices are decimal strings (e.g., "12.50").
type APIVariant struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compare_at_price"`
	SKU            string  `json:"sku"`
	Available      bool    `json:"available"`
	Grams          int     `json:"grams"`
}

// APIImage represents a product image.
type APIImage struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Position int    `json:"position"`
}
