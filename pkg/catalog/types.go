package catalog

import "strconv"

// Category is a product category.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Product is a catalog product.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	CategoryID  int64   `json:"categoryId"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// MediaItem is an image or video attached to a category.
type MediaItem struct {
	ID         int64  `json:"id"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url"`
	Type       string `json:"type,omitempty"`
	CategoryID int64  `json:"categoryId"`
}

// HitKind tells which field of a SearchHit is set.
type HitKind string

const (
	HitCategory HitKind = "category"
	HitProduct  HitKind = "product"
)

// SearchHit is one search result. Exactly one of Category and Product is set.
type SearchHit struct {
	Kind     HitKind
	Category *Category
	Product  *Product
}

// Name returns the display name of the hit.
func (h SearchHit) Name() string {
	switch {
	case h.Category != nil:
		return h.Category.Name
	case h.Product != nil:
		return h.Product.Name
	default:
		return ""
	}
}

// ProductID identifies products for controller de-duplication.
func ProductID(p Product) string {
	return strconv.FormatInt(p.ID, 10)
}

// MediaID identifies media items for controller de-duplication.
func MediaID(m MediaItem) string {
	return strconv.FormatInt(m.ID, 10)
}

// HitID identifies search hits for controller de-duplication.
func HitID(h SearchHit) string {
	switch {
	case h.Category != nil:
		return "category:" + strconv.FormatInt(h.Category.ID, 10)
	case h.Product != nil:
		return "product:" + strconv.FormatInt(h.Product.ID, 10)
	default:
		return ""
	}
}
