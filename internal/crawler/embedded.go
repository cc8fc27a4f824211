package crawler

import (
	"encoding/json"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
	"github.com/dxb-props/propertyfinder-crawler/internal/utils"
)

// embeddedStateSelector locates the application-state script block that
// server-rendered search pages embed.
const embeddedStateSelector = "script#__NEXT_DATA__"

// extractEmbeddedState is the first extraction tier: it walks the embedded
// application-state JSON down to the listings array and maps each raw
// object into a PropertyRecord. It returns nil when the script block is
// absent, unparsable or holds no listings; that is an expected outcome on
// markup drift, not an error.
func extractEmbeddedState(doc *goquery.Document, pageURL *url.URL) []repository.PropertyRecord {
	raw := doc.Find(embeddedStateSelector).First().Text()
	if raw == "" {
		return nil
	}

	var root map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil
	}

	listings := listingsFromState(root)
	if len(listings) == 0 {
		return nil
	}

	var records []repository.PropertyRecord
	for _, item := range listings {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		// Newer payloads nest the property under a wrapper object.
		if property, ok := obj["property"].(map[string]interface{}); ok {
			obj = property
		}

		record := mapRawProperty(obj, pageURL)
		if record == nil {
			continue
		}
		records = append(records, *record)
	}

	return records
}

// listingsFromState walks the fixed path props -> pageProps ->
// searchResult -> listings into the state document.
func listingsFromState(root map[string]interface{}) []interface{} {
	props, ok := root["props"].(map[string]interface{})
	if !ok {
		return nil
	}
	pageProps, ok := props["pageProps"].(map[string]interface{})
	if !ok {
		return nil
	}
	searchResult, ok := pageProps["searchResult"].(map[string]interface{})
	if !ok {
		return nil
	}
	listings, _ := searchResult["listings"].([]interface{})
	return listings
}

// mapRawProperty maps one raw property object into a PropertyRecord,
// tolerating the alternate field names seen across payload revisions. A
// record without a resolvable URL is dropped.
func mapRawProperty(obj map[string]interface{}, pageURL *url.URL) *repository.PropertyRecord {
	href := rawString(obj, "url", "share_url", "details_path")
	resolved := resolveURL(href, pageURL)
	if resolved == "" {
		return nil
	}

	record := &repository.PropertyRecord{URL: resolved}

	if title := utils.CleanText(rawString(obj, "title", "name")); title != nil {
		record.Title = *title
	}

	record.Price = rawNumber(obj, "price", "price_value", "default_price")
	if currency := rawString(obj, "price_currency", "currency"); currency != "" {
		record.Currency = currency
	}

	if location := rawString(obj, "location", "location_name"); location != "" {
		record.Location = utils.CleanText(location)
	} else if loc, ok := obj["location"].(map[string]interface{}); ok {
		record.Location = utils.CleanText(rawString(loc, "full_name", "name"))
	}

	record.Bedrooms = rawInt(obj, "bedrooms", "bedroom_count")
	record.Bathrooms = rawInt(obj, "bathrooms", "bathroom_count")

	if areaText := rawString(obj, "size", "area"); areaText != "" {
		record.Area, record.AreaUnit = utils.ParseArea(areaText)
	} else if area := rawNumber(obj, "size", "area"); area != nil {
		record.Area = area
	}
	if record.Area != nil && record.AreaUnit == nil {
		if unit := rawString(obj, "size_unit", "area_unit"); unit != "" {
			record.AreaUnit = utils.CleanText(unit)
		}
	}

	if agent, ok := obj["agent"].(map[string]interface{}); ok {
		record.AgentName = utils.CleanText(rawString(agent, "name"))
	} else if broker, ok := obj["broker"].(map[string]interface{}); ok {
		record.AgentName = utils.CleanText(rawString(broker, "name"))
	} else if name := rawString(obj, "agent_name"); name != "" {
		record.AgentName = utils.CleanText(name)
	}

	if posted := rawString(obj, "listed_date", "posted_date", "date"); posted != "" {
		record.PostedDate = utils.CleanText(posted)
	}
	record.Description = utils.CleanText(rawString(obj, "description"))

	if propertyType := rawString(obj, "property_type", "category_name", "type"); propertyType != "" {
		record.PropertyType = propertyType
	}

	return record
}

// rawString returns the first present string value among the given keys.
func rawString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// rawNumber returns the first numeric value among the given keys,
// accepting both JSON numbers and numeric strings.
func rawNumber(obj map[string]interface{}, keys ...string) *float64 {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			value := v
			return &value
		case string:
			if parsed := utils.NumberFromText(v); parsed != nil {
				return parsed
			}
		}
	}
	return nil
}

// rawInt is rawNumber for integer fields; negative values are rejected.
func rawInt(obj map[string]interface{}, keys ...string) *int {
	if number := rawNumber(obj, keys...); number != nil && *number >= 0 {
		value := int(*number)
		return &value
	}
	return nil
}

// resolveURL resolves href against the page URL and returns an absolute
// URL, or "" when href is empty or unparsable.
func resolveURL(href string, pageURL *url.URL) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if pageURL != nil {
		parsed = pageURL.ResolveReference(parsed)
	}
	if !parsed.IsAbs() {
		return ""
	}
	return parsed.String()
}
