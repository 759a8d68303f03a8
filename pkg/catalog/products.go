package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/storefront-client/pkg/fetch"
	"github.com/Sternrassler/storefront-client/pkg/pagination"
)

// ProductPageSize is the page size of category product listings.
const ProductPageSize = 10

type productPage struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"totalCount"`
	CategoryID int64     `json:"categoryId"`
}

// ProductSource serves pages of GET /products/by-category/{id}.
type ProductSource struct {
	API API
}

// FetchPage implements pagination.Source.
func (s ProductSource) FetchPage(ctx context.Context, req pagination.PageRequest[int64]) (pagination.PageResult[Product], error) {
	endpoint := fmt.Sprintf("/products/by-category/%d", req.Key)
	query := url.Values{
		"page":  []string{strconv.Itoa(req.PageNumber)},
		"limit": []string{strconv.Itoa(req.PageSize)},
	}

	status, body, err := get(ctx, s.API, endpoint, query)
	if err != nil {
		return pagination.PageResult[Product]{}, err
	}

	var page productPage
	if err := decodeEnvelope(status, body, &page); err != nil {
		return pagination.PageResult[Product]{}, err
	}

	return pagination.PageResult[Product]{
		Items:      page.Items,
		TotalCount: page.TotalCount,
	}, nil
}

// NewProductListing returns a controller over the products of a category.
// The key is the category id.
func NewProductListing(api API, cfg fetch.Config[int64, Product]) *fetch.Controller[int64, Product] {
	if cfg.Name == "" {
		cfg.Name = "products"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = ProductPageSize
	}
	return fetch.New[int64, Product](ProductSource{API: api}, cfg)
}
