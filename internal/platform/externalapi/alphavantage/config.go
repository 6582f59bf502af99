// Package alphavantage provides a client for the Alpha Vantage market data API.
package alphavantage

import (
	"time"

	"company_sync/internal/platform/config"
)

// DefaultTimeout is the per-request timeout for quote lookups.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the Alpha Vantage API client.
type Config struct {
	APIKey  string        // API key for authentication
	BaseURL string        // Base URL for the API (e.g., "https://www.alphavantage.co")
	Timeout time.Duration // HTTP request timeout
}

// NewConfig builds the client configuration from the market section of the application config.
func NewConfig(cfg config.MarketConfig) Config {
	return Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: DefaultTimeout,
	}
}
