// Package usecase implements the reconciliation flows for the companies feature.
package usecase

import "errors"

var (
	// ErrStop is returned by a flow to end the resolve stage early without failing the run.
	ErrStop = errors.New("stop requested")

	// ErrRateLimited is returned by a MarketRepository when the provider reports its rate limit.
	ErrRateLimited = errors.New("market data rate limit reached")

	// ErrNoQuote is returned by a MarketRepository when the provider has no quote for a symbol.
	ErrNoQuote = errors.New("no quote available")

	// ErrNotFound is returned by a CompanyWriter when the row to update does not exist.
	ErrNotFound = errors.New("company not found")
)
