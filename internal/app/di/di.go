// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	companyadapters "company_sync/internal/feature/companies/adapters"
	"company_sync/internal/feature/companies/reconcile"
	"company_sync/internal/feature/companies/usecase"
	"company_sync/internal/platform/cache"
	"company_sync/internal/platform/config"
	"company_sync/internal/platform/externalapi/alphavantage"
	infrahttp "company_sync/internal/platform/http"
	"company_sync/internal/platform/spreadsheet"
	"company_sync/internal/shared/ratelimiter"
)

// CompanyStore is the companies table as seen by the drivers and the status endpoints.
type CompanyStore interface {
	usecase.CompanyWriter
	usecase.SymbolRepository
	usecase.StatusRepository
}

// NewCompanyStore creates the gorm-backed companies repository.
func NewCompanyStore(db *gorm.DB) CompanyStore {
	return companyadapters.NewCompanyRepository(db)
}

// NewMarket creates a fully configured AlphaVantageMarket with HTTP client.
func NewMarket(cfg config.MarketConfig) *alphavantage.AlphaVantageMarket {
	avCfg := alphavantage.NewConfig(cfg)
	httpClient := infrahttp.NewHTTPClient(avCfg.Timeout)
	return alphavantage.NewAlphaVantageMarket(avCfg, httpClient)
}

// NewSheetSource creates the spreadsheet downloader.
func NewSheetSource(cfg config.SheetConfig) *spreadsheet.Fetcher {
	return spreadsheet.NewFetcher(cfg.URL, infrahttp.NewHTTPClient(spreadsheet.DownloadTimeout))
}

// NewQuoteCache wraps rdb as a quote cache. A nil rdb yields a cache that never hits.
func NewQuoteCache(rdb *redis.Client) *cache.QuoteCache {
	return cache.NewQuoteCache(rdb, cache.DefaultQuoteTTL, "quotes")
}

// NewSymbolBackfill creates the symbol backfill flow.
func NewSymbolBackfill(store CompanyStore, fields reconcile.FieldSets) *usecase.SymbolBackfillFlow {
	return usecase.NewSymbolBackfillFlow(store, fields)
}

// NewSpreadsheetSync creates the spreadsheet sync flow.
func NewSpreadsheetSync(cfg config.SheetConfig, store CompanyStore, fields reconcile.FieldSets) *usecase.SpreadsheetSyncFlow {
	return usecase.NewSpreadsheetSyncFlow(NewSheetSource(cfg), store, fields)
}

// NewPriceUpdate creates the price update flow with the free-tier batch cooldown.
func NewPriceUpdate(cfg config.MarketConfig, store CompanyStore, rdb *redis.Client, fields reconcile.FieldSets) *usecase.PriceUpdateFlow {
	limiter := ratelimiter.NewRateLimiter(ratelimiter.DefaultBatchSize, ratelimiter.DefaultCooldown)
	return usecase.NewPriceUpdateFlow(store, NewMarket(cfg), NewQuoteCache(rdb), limiter, fields)
}
