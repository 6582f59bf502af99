// Package dto defines data transfer objects for the companies HTTP API.
package dto

import "time"

// SyncStatusResponse represents the price sync status in the API response.
// LastPriceUpdate is null until the first price update has run.
type SyncStatusResponse struct {
	LastPriceUpdate  *time.Time `json:"lastPriceUpdate"`
	TotalCompanies   int64      `json:"totalCompanies"`
	StocksWithPrices int        `json:"stocksWithPrices"`
}

// FieldsResponse lists the extra_data keys seen in the store.
type FieldsResponse struct {
	Total  int      `json:"total"`
	Fields []string `json:"fields"`
}
