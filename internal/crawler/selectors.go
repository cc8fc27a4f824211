package crawler

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
	"github.com/dxb-props/propertyfinder-crawler/internal/utils"
)

// cardSelectors are the candidate card-container patterns, most specific
// first. The first pattern that matches anything wins; results from
// different patterns are never mixed.
var cardSelectors = []string{
	`article[data-testid="property-card"]`,
	`li[data-testid^="list-item"] article`,
	`div.property-card`,
	`li.card-list__item`,
	`div[class*="card"] > a[href*="/plp/"]`,
	`.listing-item`,
}

// Sub-field selector lists, tried in order inside each card.
var (
	titleSelectors = []string{
		`[data-testid*="title"]`, "h2", `.property-card__title`, `.card__title`, `.title`,
	}
	priceSelectors = []string{
		`[data-testid*="price"]`, `.property-card__price`, `.card__price`, `.price`,
	}
	locationSelectors = []string{
		`[data-testid*="location"]`, `.property-card__location`, `.card__location`, `.location`,
	}
	bedroomSelectors = []string{
		`[data-testid*="bedroom"]`, `.property-card__bedrooms`, `.bedrooms`, `[class*="bed"]`,
	}
	bathroomSelectors = []string{
		`[data-testid*="bathroom"]`, `.property-card__bathrooms`, `.bathrooms`, `[class*="bath"]`,
	}
	areaSelectors = []string{
		`[data-testid*="size"]`, `[data-testid*="area"]`, `.property-card__area`, `.area`, `[class*="size"]`,
	}
)

// Detail pages expose richer single-valued fields.
var (
	detailTitleSelectors = []string{
		"h1", `[data-testid*="title"]`, `.property-title`,
	}
	detailDescriptionSelectors = []string{
		`[data-testid*="description"]`, `.property-description`, `#description`, `[class*="description"]`,
	}
	detailAgentSelectors = []string{
		`[data-testid*="agent-name"]`, `[data-testid*="agent"]`, `.agent-name`, `[class*="agent"]`,
	}
	detailPostedSelectors = []string{
		`[data-testid*="listed"]`, `[data-testid*="posted"]`, `.listed-date`, `[class*="listed"]`,
	}
)

// extractCards is the third extraction tier for listing pages: it walks
// the rendered document with prioritized selector patterns. A missing
// sub-field leaves the field nil; only a card without a link is dropped.
func extractCards(doc *goquery.Document, pageURL *url.URL) []repository.PropertyRecord {
	var cards *goquery.Selection
	for _, selector := range cardSelectors {
		if matches := doc.Find(selector); matches.Length() > 0 {
			cards = matches
			break
		}
	}
	if cards == nil {
		return nil
	}

	var records []repository.PropertyRecord
	cards.Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find("a[href]").First().Attr("href")
		if href == "" {
			// The card container itself may be the anchor.
			href, _ = card.Attr("href")
		}
		cardURL := resolveURL(href, pageURL)
		if cardURL == "" {
			return
		}

		record := repository.PropertyRecord{URL: cardURL}

		if title := firstText(card, titleSelectors); title != nil {
			record.Title = *title
		}
		if priceText := firstText(card, priceSelectors); priceText != nil {
			record.Price, record.Currency = utils.ParsePrice(*priceText)
		}
		record.Location = firstText(card, locationSelectors)
		if bedrooms := firstText(card, bedroomSelectors); bedrooms != nil {
			record.Bedrooms = utils.IntFromText(*bedrooms)
		}
		if bathrooms := firstText(card, bathroomSelectors); bathrooms != nil {
			record.Bathrooms = utils.IntFromText(*bathrooms)
		}
		if areaText := firstText(card, areaSelectors); areaText != nil {
			record.Area, record.AreaUnit = utils.ParseArea(*areaText)
		}

		records = append(records, record)
	})

	return records
}

// extractDetailFields applies the same selector-fallback pattern to the
// single-valued fields of a detail page.
func extractDetailFields(doc *goquery.Document, pageURL *url.URL) repository.PropertyRecord {
	record := repository.PropertyRecord{}
	if pageURL != nil {
		record.URL = pageURL.String()
	}

	root := doc.Selection

	if title := firstText(root, detailTitleSelectors); title != nil {
		record.Title = *title
	}
	if priceText := firstText(root, priceSelectors); priceText != nil {
		record.Price, record.Currency = utils.ParsePrice(*priceText)
	}
	record.Location = firstText(root, locationSelectors)
	if bedrooms := firstText(root, bedroomSelectors); bedrooms != nil {
		record.Bedrooms = utils.IntFromText(*bedrooms)
	}
	if bathrooms := firstText(root, bathroomSelectors); bathrooms != nil {
		record.Bathrooms = utils.IntFromText(*bathrooms)
	}
	if areaText := firstText(root, areaSelectors); areaText != nil {
		record.Area, record.AreaUnit = utils.ParseArea(*areaText)
	}
	record.AgentName = firstText(root, detailAgentSelectors)
	record.PostedDate = firstText(root, detailPostedSelectors)
	record.Description = firstText(root, detailDescriptionSelectors)

	return record
}

// firstText returns the cleaned text of the first selector that matches a
// non-empty element, or nil.
func firstText(sel *goquery.Selection, selectors []string) *string {
	for _, selector := range selectors {
		if text := utils.CleanText(sel.Find(selector).First().Text()); text != nil {
			return text
		}
	}
	return nil
}
