package domain

import (
	"time"
)

// Product is the canonical catalog entity prices are attached to.
type Product struct {
	ID           string    `db:"id"            json:"id"`
	Name         string    `db:"name"          json:"name"`
	Brand        string    `db:"brand"         json:"brand"`
	Category     string    `db:"category"      json:"category"`
	PowerType    string    `db:"power_type"    json:"power_type"`
	Platform     string    `db:"platform"      json:"platform"`
	ImageURL     string    `db:"image_url"     json:"image_url,omitempty"`
	LowestPrice  float64   `db:"lowest_price"  json:"lowest_price"`
	HighestPrice float64   `db:"highest_price" json:"highest_price"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// MatchRecord links a scraped listing to a catalog product.
// Uniquely keyed by (SourceStore, SourceIdentifier) so reprocessing the
// same listing is idempotent.
type MatchRecord struct {
	ID               string    `db:"id"                json:"id"`
	SourceStore      string    `db:"source_store"      json:"source_store"`
	SourceIdentifier string    `db:"source_identifier" json:"source_identifier"`
	ProductID        string    `db:"product_id"        json:"product_id"`
	ConfidenceScore  float64   `db:"confidence_score"  json:"confidence_score"`
	RequiresReview   bool      `db:"requires_review"   json:"requires_review"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"        json:"updated_at"`
}

// Match is the matching engine's answer for one listing.
type Match struct {
	ProductID      string  `json:"product_id"`
	Confidence     float64 `json:"confidence"`
	RequiresReview bool    `json:"requires_review"`
	// New reports whether the product was created for this listing
	New bool `json:"new"`
}
