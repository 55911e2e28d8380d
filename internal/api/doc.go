// Package api provides the client for the Delli Shopify storefront API.
//
// The storefront exposes its public catalog at:
//
//	https://delli.market/products.json?limit=250&page=N
//
// Pagination is page-numbered: requests walk page=1.. until a page
// returns zero products. The endpoint needs no authentication.
package api
