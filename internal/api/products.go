package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/krissolling/delli-data/internal/model"
)

// GetProducts fetches a single page of the product catalog.
// Pages are 1-indexed; a page past the end returns zero products.
func (c *Client) GetProducts(ctx context.Context, page int) (*ProductsResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("page", strconv.Itoa(page))

	var resp ProductsResponse
	if err := c.get(ctx, "/products.json", query, &resp); err != nil {
		return nil, fmt.Errorf("get products page %d: %w", page, err)
	}

	return &resp, nil
}

// GetAllProducts fetches the entire catalog by walking pages until one
// comes back empty. A delay between pages keeps the request rate polite.
func (c *Client) GetAllProducts(ctx context.Context) ([]APIProduct, error) {
	var all []APIProduct

	for page := 1; ; page++ {
		if page > 1 && c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}

		resp, err := c.GetProducts(ctx, page)
		if err != nil {
			return nil, err
		}

		if len(resp.Products) == 0 {
			break
		}

		all = append(all, resp.Products...)
		c.logger.Debug("fetched catalog page",
			"page", page,
			"products", len(resp.Products),
			"total", len(all),
		)
	}

	return all, nil
}

// FetchAll fetches the catalog and reduces it to tracked summaries.
func (c *Client) FetchAll(ctx context.Context) ([]model.Product, error) {
	raw, err := c.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(raw))
	for i := range raw {
		products = append(products, raw[i].ToModel())
	}
	return products, nil
}
