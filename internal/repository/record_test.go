package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestMergeDetailWinsWhenPresent(t *testing.T) {
	listing := PropertyRecord{
		Title:    "2 Bed in Marina",
		Price:    floatPtr(1000000),
		Currency: "AED",
		Location: strPtr("Dubai Marina"),
		URL:      "https://example.com/card",
	}
	detail := PropertyRecord{
		Title:       "Stunning 2 Bedroom with Marina View",
		Price:       floatPtr(1100000),
		Description: strPtr("Full description"),
		AgentName:   strPtr("A. Agent"),
		URL:         "https://example.com/detail",
	}

	merged := Merge(listing, detail)

	assert.Equal(t, "Stunning 2 Bedroom with Marina View", merged.Title)
	assert.Equal(t, 1100000.0, *merged.Price)
	assert.Equal(t, "Full description", *merged.Description)
	assert.Equal(t, "A. Agent", *merged.AgentName)
	assert.Equal(t, "https://example.com/detail", merged.URL)
	// Listing values survive where the detail page had nothing.
	assert.Equal(t, "Dubai Marina", *merged.Location)
	assert.Equal(t, "AED", merged.Currency)
}

func TestMergeNeverRegressesToNil(t *testing.T) {
	listing := PropertyRecord{
		Title:     "Card title",
		Price:     floatPtr(500000),
		Bedrooms:  intPtr(2),
		Bathrooms: intPtr(3),
		Area:      floatPtr(1200),
		AreaUnit:  strPtr("sqft"),
		URL:       "https://example.com/card",
	}
	detail := PropertyRecord{URL: "https://example.com/card"}

	merged := Merge(listing, detail)

	assert.Equal(t, listing.Price, merged.Price)
	assert.Equal(t, listing.Bedrooms, merged.Bedrooms)
	assert.Equal(t, listing.Bathrooms, merged.Bathrooms)
	assert.Equal(t, listing.Area, merged.Area)
	assert.Equal(t, listing.AreaUnit, merged.AreaUnit)
}

func TestMergeIgnoresDefaultDetailTitle(t *testing.T) {
	listing := PropertyRecord{Title: "Real card title", URL: "https://example.com/card"}
	detail := PropertyRecord{Title: DefaultTitle, URL: "https://example.com/card"}

	merged := Merge(listing, detail)
	assert.Equal(t, "Real card title", merged.Title)
}

func TestMergeAreaUnitFollowsArea(t *testing.T) {
	listing := PropertyRecord{
		Area:     floatPtr(1200),
		AreaUnit: strPtr("sqft"),
		URL:      "https://example.com/card",
	}
	detail := PropertyRecord{
		Area: floatPtr(111.5),
		URL:  "https://example.com/card",
	}

	merged := Merge(listing, detail)

	// The unit travels with the magnitude, even when that leaves it unset.
	assert.Equal(t, 111.5, *merged.Area)
	assert.Nil(t, merged.AreaUnit)
}
