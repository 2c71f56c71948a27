package models

import "time"

// Listing is one normalized observation of a land listing at fetch time.
// It is produced by the fetch/normalize layer; this module never parses
// raw HTML itself. PropertyID is the stable external identifier and is
// immutable for the life of a listing.
type Listing struct {
	PropertyID string `json:"property_id"`
	URL        string `json:"url"`
	Title      string `json:"title"`

	// PriceNumeric is the asking price in 万円. Zero means the price
	// could not be extracted.
	PriceNumeric int    `json:"price_numeric"`
	Address      string `json:"address"`

	// Optional attributes. Nil when the source page did not carry them.
	LandAreaTsubo      *float64 `json:"land_area_tsubo,omitempty"`
	BuildingCoverage   *float64 `json:"building_coverage,omitempty"`
	FloorAreaRatio     *float64 `json:"floor_area_ratio,omitempty"`
	ZoneType           string   `json:"zone_type,omitempty"`
	StationWalkMinutes *int     `json:"station_walk_minutes,omitempty"`

	ObservedAt time.Time `json:"observed_at"`
}
