package crawler

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
)

// Extractor runs the tiered extraction strategies over a fetched page.
// Tiers are tried in strict priority order, structured data first, and the
// first non-empty result wins; results from different tiers are never
// merged on the same page. Markup drift that defeats one tier therefore
// degrades extraction instead of breaking it, and most pages resolve at
// tier 1 or 2 without paying for the DOM walk.
type Extractor struct {
	logger *logger.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{
		logger: logger.NewLogger("extractor"),
	}
}

// ExtractListings pulls property cards out of a listing page. An empty
// result means every tier missed, which is an expected outcome on empty or
// blocked pages, not an error.
func (e *Extractor) ExtractListings(doc *goquery.Document, pageURL *url.URL) []repository.PropertyRecord {
	if records := extractEmbeddedState(doc, pageURL); len(records) > 0 {
		e.logTier(pageURL, "embedded_state", len(records))
		return records
	}

	if records := extractJSONLD(doc, pageURL); len(records) > 0 {
		e.logTier(pageURL, "json_ld", len(records))
		return records
	}

	if records := extractCards(doc, pageURL); len(records) > 0 {
		e.logTier(pageURL, "selectors", len(records))
		return records
	}

	e.logger.WithField("url", pageURL.String()).Info("No cards extracted by any tier")
	return nil
}

// ExtractDetail pulls the single record off a detail page: JSON-LD first,
// then the field-level selector fallback. Embedded-state extraction is a
// listing-page strategy and is not attempted here.
func (e *Extractor) ExtractDetail(doc *goquery.Document, pageURL *url.URL) repository.PropertyRecord {
	if records := extractJSONLD(doc, pageURL); len(records) > 0 {
		e.logTier(pageURL, "json_ld", 1)
		record := records[0]
		// The fetched page is authoritative for identity. Structured data
		// may carry a canonical url shared across listings, which would
		// collapse distinct records onto one URL.
		if pageURL != nil {
			record.URL = pageURL.String()
		}
		return record
	}

	e.logTier(pageURL, "selectors", 1)
	return extractDetailFields(doc, pageURL)
}

func (e *Extractor) logTier(pageURL *url.URL, tier string, count int) {
	e.logger.WithFields(map[string]interface{}{
		"url":   pageURL.String(),
		"tier":  tier,
		"cards": count,
	}).Debug("Extraction tier resolved")
}
