package repository

// DefaultTitle is used when no title can be extracted from any tier.
const DefaultTitle = "Untitled Property"

// PropertyRecord is the unit of output. Optional fields are pointers so a
// missing value stays distinguishable from a genuine zero. URL is the
// record's identity: two records with the same URL are the same listing.
type PropertyRecord struct {
	Title        string   `bson:"title" json:"title"`
	Price        *float64 `bson:"price,omitempty" json:"price,omitempty"`
	Currency     string   `bson:"currency" json:"currency"`
	Location     *string  `bson:"location,omitempty" json:"location,omitempty"`
	Bedrooms     *int     `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms    *int     `bson:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	Area         *float64 `bson:"area,omitempty" json:"area,omitempty"`
	AreaUnit     *string  `bson:"area_unit,omitempty" json:"area_unit,omitempty"`
	AgentName    *string  `bson:"agent_name,omitempty" json:"agent_name,omitempty"`
	PostedDate   *string  `bson:"posted_date,omitempty" json:"posted_date,omitempty"`
	Description  *string  `bson:"description,omitempty" json:"description,omitempty"`
	PropertyType string   `bson:"property_type" json:"property_type"`
	URL          string   `bson:"url" json:"url"`
}

// Merge combines a listing-card record with a detail-page record. A detail
// value overwrites the listing value only when the detail value is present,
// so enrichment never regresses a populated field back to nil. The URL comes
// from the detail fetch when one occurred, since that fetch is authoritative
// for the record's identity.
func Merge(listing, detail PropertyRecord) PropertyRecord {
	merged := listing

	if detail.URL != "" {
		merged.URL = detail.URL
	}
	if detail.Title != "" && detail.Title != DefaultTitle {
		merged.Title = detail.Title
	}
	if detail.Price != nil {
		merged.Price = detail.Price
	}
	if detail.Currency != "" {
		merged.Currency = detail.Currency
	}
	if detail.Location != nil {
		merged.Location = detail.Location
	}
	if detail.Bedrooms != nil {
		merged.Bedrooms = detail.Bedrooms
	}
	if detail.Bathrooms != nil {
		merged.Bathrooms = detail.Bathrooms
	}
	if detail.Area != nil {
		merged.Area = detail.Area
		merged.AreaUnit = detail.AreaUnit
	}
	if detail.AgentName != nil {
		merged.AgentName = detail.AgentName
	}
	if detail.PostedDate != nil {
		merged.PostedDate = detail.PostedDate
	}
	if detail.Description != nil {
		merged.Description = detail.Description
	}
	if detail.PropertyType != "" {
		merged.PropertyType = detail.PropertyType
	}

	return merged
}
