package crawler

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
	"github.com/dxb-props/propertyfinder-crawler/internal/utils"
)

// maxJSONLDBlocks bounds how many ld+json blocks are inspected per page;
// pages carry unrelated metadata blocks (breadcrumbs, organization) too.
const maxJSONLDBlocks = 10

// recognizedTypes is the real-estate vocabulary accepted for tier-2
// extraction.
var recognizedTypes = map[string]bool{
	"RealEstateListing": true,
	"Offer":             true,
	"Residence":         true,
	"Apartment":         true,
	"House":             true,
	"Product":           true,
}

// extractJSONLD is the second extraction tier. It scans up to
// maxJSONLDBlocks ld+json script blocks and returns the records mapped
// from the first block that contains at least one object of a recognized
// type. A block that fails to parse is skipped, not fatal.
func extractJSONLD(doc *goquery.Document, pageURL *url.URL) []repository.PropertyRecord {
	var records []repository.PropertyRecord

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxJSONLDBlocks {
			return false
		}

		var parsed interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &parsed); err != nil {
			return true // malformed block: try the next one
		}

		for _, obj := range jsonLDObjects(parsed) {
			if !recognizedTypes[jsonLDType(obj)] {
				continue
			}
			if record := mapJSONLD(obj, pageURL); record != nil {
				records = append(records, *record)
			}
		}

		return len(records) == 0
	})

	return records
}

// jsonLDObjects flattens a parsed ld+json document (single object or
// array) into its candidate objects.
func jsonLDObjects(parsed interface{}) []map[string]interface{} {
	switch v := parsed.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}
	case []interface{}:
		var objects []map[string]interface{}
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				objects = append(objects, obj)
			}
		}
		return objects
	default:
		return nil
	}
}

// jsonLDType returns the object's type tag; an array-valued @type yields
// its first recognized entry.
func jsonLDType(obj map[string]interface{}) string {
	switch v := obj["@type"].(type) {
	case string:
		return v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && recognizedTypes[s] {
				return s
			}
		}
	}
	return ""
}

// mapJSONLD maps the nested ld+json fields into the flat record shape.
func mapJSONLD(obj map[string]interface{}, pageURL *url.URL) *repository.PropertyRecord {
	record := &repository.PropertyRecord{}

	record.URL = resolveURL(rawString(obj, "url"), pageURL)
	if record.URL == "" && pageURL != nil {
		// Detail-page blocks often omit url; the page itself is the listing.
		record.URL = pageURL.String()
	}
	if record.URL == "" {
		return nil
	}

	if title := utils.CleanText(rawString(obj, "name")); title != nil {
		record.Title = *title
	}
	record.Description = utils.CleanText(rawString(obj, "description"))

	if offer := nestedObject(obj, "offers"); offer != nil {
		record.Price = rawNumber(offer, "price")
		if currency := rawString(offer, "priceCurrency"); currency != "" {
			record.Currency = currency
		}
	} else if price := rawNumber(obj, "price"); price != nil {
		record.Price = price
		if currency := rawString(obj, "priceCurrency"); currency != "" {
			record.Currency = currency
		}
	}

	switch addr := obj["address"].(type) {
	case string:
		record.Location = utils.CleanText(addr)
	case map[string]interface{}:
		var parts []string
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion"} {
			if part := rawString(addr, key); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			record.Location = utils.CleanText(strings.Join(parts, ", "))
		}
	}

	if floorSize := nestedObject(obj, "floorSize"); floorSize != nil {
		record.Area = rawNumber(floorSize, "value")
		if record.Area != nil {
			switch {
			case strings.EqualFold(rawString(floorSize, "unitCode"), "FTK"):
				unit := utils.UnitSqft
				record.AreaUnit = &unit
			case strings.EqualFold(rawString(floorSize, "unitCode"), "MTK"):
				unit := utils.UnitSqm
				record.AreaUnit = &unit
			default:
				record.AreaUnit = utils.AreaUnitFromText(rawString(floorSize, "unitText"))
			}
		}
	}

	record.Bedrooms = rawInt(obj, "numberOfBedrooms", "numberOfRooms")
	record.Bathrooms = rawInt(obj, "numberOfBathroomsTotal", "numberOfBathrooms")

	if seller := nestedObject(obj, "seller", "offeredBy"); seller != nil {
		record.AgentName = utils.CleanText(rawString(seller, "name"))
	}

	if posted := rawString(obj, "datePosted", "datePublished"); posted != "" {
		record.PostedDate = utils.CleanText(posted)
	}

	if t := jsonLDType(obj); t == "Apartment" || t == "House" || t == "Residence" {
		record.PropertyType = strings.ToLower(t)
	}

	return record
}

// nestedObject returns the first object value among the given keys,
// unwrapping single-element arrays along the way.
func nestedObject(obj map[string]interface{}, keys ...string) map[string]interface{} {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case map[string]interface{}:
			return v
		case []interface{}:
			if len(v) > 0 {
				if nested, ok := v[0].(map[string]interface{}); ok {
					return nested
				}
			}
		}
	}
	return nil
}
