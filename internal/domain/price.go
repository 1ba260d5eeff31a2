package domain

import (
	"time"
)

// StorePrice is the latest observed price for a product at one store.
// One row per (ProductID, StoreID), upserted.
type StorePrice struct {
	ProductID             string    `db:"product_id"              json:"product_id"`
	StoreID               string    `db:"store_name"              json:"store_id"`
	Price                 float64   `db:"price"                   json:"price"`
	ShippingCost          float64   `db:"shipping_cost"           json:"shipping_cost"`
	FreeShippingThreshold float64   `db:"free_shipping_threshold" json:"free_shipping_threshold"`
	InStock               bool      `db:"in_stock"                json:"in_stock"`
	URL                   string    `db:"url"                     json:"url"`
	LastUpdated           time.Time `db:"last_updated"            json:"last_updated"`
}

// PriceHistoryEntry is an append-only price observation. A new entry is
// written only when no prior StorePrice existed for the pair or the price
// changed.
type PriceHistoryEntry struct {
	ID         int64     `db:"id"          json:"id"`
	ProductID  string    `db:"product_id"  json:"product_id"`
	StoreID    string    `db:"store_name"  json:"store_id"`
	Price      float64   `db:"price"       json:"price"`
	InStock    bool      `db:"in_stock"    json:"in_stock"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
