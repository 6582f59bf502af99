package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/domain/extradata"
	"company_sync/internal/feature/companies/reconcile"
	"company_sync/internal/shared/ratelimiter"
)

// DefaultPriceLimit は株価更新で1回に処理する企業数の既定値です。
const DefaultPriceLimit = 100

const quoteCurrency = "USD"

// Price fields written into extra_data.
const (
	FieldCurrentPrice  = "Current_Price"
	FieldCurrency      = "Currency"
	FieldChangePercent = "Price_Change_Percent"
	FieldPriceUpdate   = "Price_Update"
	FieldMarketStatus  = "Market_Status"
	FieldDayHigh       = "Day_High"
	FieldDayLow        = "Day_Low"
	FieldVolume        = "Volume"
)

const (
	marketOpen   = "🟢 Open"
	marketClosed = "🔴 Closed"
)

// MarketRepository は相場データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
type MarketRepository interface {
	GetQuote(ctx context.Context, symbol string) (*entity.Quote, error)
}

// QuoteCache は取得済みの相場を一時的に保持するキャッシュのインターフェイスです。
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*entity.Quote, bool)
	Set(ctx context.Context, quote entity.Quote)
}

// TickerRepository は extra_data に指定のキーを持つ企業を取得するリポジトリのインターフェイスです。
type TickerRepository interface {
	ListWithExtraKey(ctx context.Context, key string, offset, size int) ([]entity.Company, error)
}

// PriceUpdateFlow はティッカーを持つ企業の株価を外部 API から取得し、extra_data の価格フィールドを更新します。
type PriceUpdateFlow struct {
	repo        TickerRepository
	market      MarketRepository
	cache       QuoteCache
	rateLimiter ratelimiter.RateLimiterInterface
	fields      reconcile.FieldSets
	pageSize    int
	now         func() time.Time
}

var _ Flow[entity.Company] = (*PriceUpdateFlow)(nil)

// NewPriceUpdateFlow は新しい PriceUpdateFlow を作成します。cache は nil でも構いません。
func NewPriceUpdateFlow(repo TickerRepository, market MarketRepository, cache QuoteCache, rateLimiter ratelimiter.RateLimiterInterface, fields reconcile.FieldSets) *PriceUpdateFlow {
	return &PriceUpdateFlow{
		repo:        repo,
		market:      market,
		cache:       cache,
		rateLimiter: rateLimiter,
		fields:      fields,
		pageSize:    DefaultPageSize,
		now:         time.Now,
	}
}

func (f *PriceUpdateFlow) Name() string { return "price update" }

// Fetch はティッカー列を持つ企業を取得し、値が空または "-" のものを除外します。
func (f *PriceUpdateFlow) Fetch(ctx context.Context, opts Options) (Source[entity.Company], error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPriceLimit
	}
	page := func(ctx context.Context, offset, size int) ([]entity.Company, error) {
		return f.repo.ListWithExtraKey(ctx, f.fields.TickerField, offset, size)
	}
	companies, err := FetchAll(ctx, f.pageSize, limit, page)
	if err != nil {
		return Source[entity.Company]{}, err
	}

	rows := companies[:0:0]
	for _, c := range companies {
		if _, ok := f.ticker(c); ok {
			rows = append(rows, c)
		}
	}
	slog.Info("companies with tickers", "fetched", len(companies), "usable", len(rows))
	return Source[entity.Company]{Rows: rows, Existing: rows}, nil
}

// ticker は extra_data のティッカー値を返します。空や "-" は無効です。
func (f *PriceUpdateFlow) ticker(c entity.Company) (string, bool) {
	v, ok := c.ExtraData.Get(f.fields.TickerField)
	if !ok || v.IsZero() {
		return "", false
	}
	s := strings.TrimSpace(v.String())
	if s == "" || s == "-" {
		return "", false
	}
	return s, true
}

func (f *PriceUpdateFlow) PrimaryKey(c entity.Company) string { return reconcile.ByID(c) }

func (f *PriceUpdateFlow) Keys(c entity.Company) (string, string) { return reconcile.ByID(c), "" }

// Resolve はキャッシュまたは外部 API から相場を取得してパッチを組み立てます。
// レート制限に達した場合は ErrStop を返し、以降の企業は処理しません。
func (f *PriceUpdateFlow) Resolve(ctx context.Context, c entity.Company, match *entity.Company) (Resolution, error) {
	if match == nil {
		return Resolution{Skip: true, Reason: "record not indexed"}, nil
	}
	raw, ok := f.ticker(c)
	if !ok {
		return Resolution{Skip: true, Reason: "no ticker"}, nil
	}
	symbol, ok := reconcile.Normalize(raw)
	if !ok {
		return Resolution{Skip: true, Reason: fmt.Sprintf("invalid ticker %q", raw)}, nil
	}

	var res Resolution
	quote, cached := f.cachedQuote(ctx, symbol)
	if !cached {
		f.rateLimiter.WaitIfNeeded()
		res.APICalls = 1

		q, err := f.market.GetQuote(ctx, symbol)
		switch {
		case errors.Is(err, ErrRateLimited):
			return res, fmt.Errorf("%w: %w", ErrStop, err)
		case err != nil:
			slog.Warn("quote unavailable", "symbol", symbol, "name", c.DisplayName(), "error", err)
			res.Skip = true
			res.Reason = err.Error()
			return res, nil
		}
		quote = q
		if f.cache != nil {
			f.cache.Set(ctx, *quote)
		}
	}

	res.Patch = f.buildPatch(*quote)
	slog.Info("price fetched", "name", c.DisplayName(), "symbol", symbol, "price", quote.Price.String(), "cached", cached)
	return res, nil
}

func (f *PriceUpdateFlow) cachedQuote(ctx context.Context, symbol string) (*entity.Quote, bool) {
	if f.cache == nil {
		return nil, false
	}
	return f.cache.Get(ctx, symbol)
}

// buildPatch は相場から価格フィールドと current_price 列の更新内容を組み立てます。
func (f *PriceUpdateFlow) buildPatch(q entity.Quote) entity.Patch {
	price, _ := q.Price.Float64()
	high, _ := q.High.Float64()
	low, _ := q.Low.Float64()
	change, _ := q.ChangePercent.Float64()

	status := marketClosed
	if !q.Price.IsZero() {
		status = marketOpen
	}

	extra := extradata.New()
	extra.Set(FieldCurrentPrice, extradata.Number(price))
	extra.Set(FieldCurrency, extradata.String(quoteCurrency))
	extra.Set(FieldChangePercent, extradata.Number(change))
	extra.Set(FieldPriceUpdate, extradata.Time(f.now().UTC()))
	extra.Set(FieldMarketStatus, extradata.String(status))
	extra.Set(FieldDayHigh, extradata.Number(high))
	extra.Set(FieldDayLow, extradata.Number(low))
	extra.Set(FieldVolume, extradata.Number(float64(q.Volume)))

	p := q.Price
	return entity.Patch{CurrentPrice: &p, ExtraData: extra}
}

func (f *PriceUpdateFlow) MergePolicy() reconcile.MergePolicy {
	return reconcile.MergePolicy{Protected: f.fields.ProtectedSet(), Mode: reconcile.OnlyProtected}
}
