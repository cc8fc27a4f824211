package repository

import "context"

// Sink is the output collaborator of the crawl engine: append-only and
// order-insensitive.
type Sink interface {
	Save(ctx context.Context, record PropertyRecord) error
}

// PropertyFilter describes the query surface exposed by the API.
type PropertyFilter struct {
	Location     string  `json:"location,omitempty"`
	PropertyType string  `json:"property_type,omitempty"`
	PriceMin     float64 `json:"price_min,omitempty"`
	PriceMax     float64 `json:"price_max,omitempty"`
	BedroomsMin  int     `json:"bedrooms_min,omitempty"`
	BedroomsMax  int     `json:"bedrooms_max,omitempty"`
	AreaMin      float64 `json:"area_min,omitempty"`
	AreaMax      float64 `json:"area_max,omitempty"`
}

// PaginationParams selects a page of query results.
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// PropertySearchResult carries a page of records plus query metadata.
type PropertySearchResult struct {
	Properties  []PropertyRecord `json:"properties"`
	TotalItems  int64            `json:"total_items"`
	TotalPages  int              `json:"total_pages"`
	CurrentPage int              `json:"current_page"`
	PageSize    int              `json:"page_size"`
}

// PropertyRepository is the full storage contract used by the API layer.
type PropertyRepository interface {
	Sink
	FindAll(ctx context.Context) ([]PropertyRecord, error)
	FindWithFilters(ctx context.Context, filter PropertyFilter, pagination PaginationParams) (*PropertySearchResult, error)
	ClearAll(ctx context.Context) error
	Close()
}
