package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dxb-props/propertyfinder-crawler/internal/config"
	"github.com/dxb-props/propertyfinder-crawler/internal/utils"
)

const baseURL = "https://www.propertyfinder.ae"

// ErrInvalidCriteria is returned for criteria that cannot produce a search
// URL. It is detected before any fetch is issued.
var ErrInvalidCriteria = errors.New("invalid search criteria")

// Category is the transaction category of a search.
type Category int

const (
	CategorySale Category = 1
	CategoryRent Category = 2
)

// Segment returns the URL path segment for the category.
func (c Category) Segment() string {
	switch c {
	case CategorySale:
		return "for-sale"
	case CategoryRent:
		return "for-rent"
	default:
		return ""
	}
}

// SearchCriteria describes one search. Either StartURL or Location must be
// set; StartURL wins when both are present. Constructed once per run and
// immutable afterwards.
type SearchCriteria struct {
	StartURL     string
	Location     string
	PropertyType string
	Category     Category
	MinPrice     int
	MaxPrice     int
}

// CriteriaFromConfig maps run configuration onto search criteria.
func CriteriaFromConfig(cfg *config.Config) SearchCriteria {
	return SearchCriteria{
		StartURL:     cfg.StartURL,
		Location:     cfg.Location,
		PropertyType: cfg.PropertyType,
		Category:     Category(cfg.CategoryType),
		MinPrice:     cfg.MinPrice,
		MaxPrice:     cfg.MaxPrice,
	}
}

// Validate reports whether the criteria can produce a search URL.
func (sc SearchCriteria) Validate() error {
	if sc.StartURL == "" && sc.Location == "" {
		return fmt.Errorf("%w: neither a start URL nor a location was supplied", ErrInvalidCriteria)
	}
	if sc.StartURL == "" && sc.Category.Segment() == "" {
		return fmt.Errorf("%w: unknown category %d", ErrInvalidCriteria, sc.Category)
	}
	return nil
}

// BuildSearchURL produces the listing-page URL for the given page number.
// A caller-supplied start URL is cloned with only the page parameter
// overwritten, so caller-chosen filters and sort order pass through. The
// output is deterministic: identical criteria and page number always yield
// a byte-identical URL, which the pagination dedup set relies on.
func BuildSearchURL(criteria SearchCriteria, page int) (string, error) {
	if criteria.StartURL != "" {
		parsed, err := url.Parse(criteria.StartURL)
		if err != nil {
			return "", fmt.Errorf("%w: unparsable start URL: %v", ErrInvalidCriteria, err)
		}
		query := parsed.Query()
		query.Set("page", strconv.Itoa(page))
		parsed.RawQuery = query.Encode()
		return parsed.String(), nil
	}

	if err := criteria.Validate(); err != nil {
		return "", err
	}

	propertyType := criteria.PropertyType
	if propertyType == "" {
		propertyType = "property"
	}

	path := fmt.Sprintf("/en/%s-%s-%s.html",
		utils.Slugify(propertyType), criteria.Category.Segment(), utils.Slugify(criteria.Location))

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if criteria.MinPrice > 0 {
		query.Set("pf", strconv.Itoa(criteria.MinPrice))
	}
	if criteria.MaxPrice > 0 {
		query.Set("pt", strconv.Itoa(criteria.MaxPrice))
	}

	return baseURL + path + "?" + query.Encode(), nil
}
