package models

import "time"

// ListingData is the flat record of listing attributes the dedup engine
// consumes. It is populated by the external listing store and never mutated
// by this service. Only ID, Title and SourceName are guaranteed non-empty;
// everything else may be missing and is excluded from scoring when absent.
type ListingData struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	VIN             *string    `json:"vin,omitempty" db:"vin"`
	Make            string     `json:"make" db:"make"`
	Model           string     `json:"model" db:"model"`
	Year            int        `json:"year" db:"year"`
	Price           *float64   `json:"price,omitempty" db:"price"`
	Mileage         *float64   `json:"mileage,omitempty" db:"mileage"`
	ImageURL        *string    `json:"image_url,omitempty" db:"image_url"`
	ImageHash       *string    `json:"image_hash,omitempty" db:"image_hash"`
	City            string     `json:"city" db:"city"`
	Province        string     `json:"province" db:"province"`
	PostalCode      string     `json:"postal_code" db:"postal_code"`
	Latitude        *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64   `json:"longitude,omitempty" db:"longitude"`
	SourceName      string     `json:"source_name" db:"source_name"`
	SourceListingID string     `json:"source_listing_id" db:"source_listing_id"`
	ScrapedAt       *time.Time `json:"scraped_at,omitempty" db:"scraped_at"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l *ListingData) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// CanonicalPair orders two listing IDs lexicographically so that (A,B) and
// (B,A) always address the same persisted match/review row.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
