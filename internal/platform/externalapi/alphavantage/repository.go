package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/usecase"
	"company_sync/internal/platform/externalapi/alphavantage/dto"
)

// AlphaVantageMarket はAlpha Vantage外部APIから相場を取得するMarketRepository実装です。
type AlphaVantageMarket struct {
	cfg    Config
	client *http.Client
}

// AlphaVantageMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*AlphaVantageMarket)(nil)

// NewAlphaVantageMarket は指定された設定とHTTPクライアントでAlphaVantageMarketの新しいインスタンスを生成します。
func NewAlphaVantageMarket(cfg Config, client *http.Client) *AlphaVantageMarket {
	return &AlphaVantageMarket{cfg: cfg, client: client}
}

// GetQuote はGLOBAL_QUOTEを呼び出して1銘柄の最新相場を返します。
// レート制限の応答は usecase.ErrRateLimited、相場がない場合は usecase.ErrNoQuote を返します。
func (a *AlphaVantageMarket) GetQuote(ctx context.Context, symbol string) (*entity.Quote, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", a.cfg.APIKey)

	u := fmt.Sprintf("%s/query?%s", strings.TrimRight(a.cfg.BaseURL, "/"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("alphavantage http %d", res.StatusCode)
	}

	var body dto.GlobalQuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode quote for %s: %w", symbol, err)
	}

	switch {
	case body.Note != "":
		return nil, fmt.Errorf("%w: %s", usecase.ErrRateLimited, body.Note)
	case body.Information != "":
		return nil, fmt.Errorf("%w: %s", usecase.ErrRateLimited, body.Information)
	case body.ErrorMessage != "":
		return nil, fmt.Errorf("%w: %s: %s", usecase.ErrNoQuote, symbol, body.ErrorMessage)
	case body.Quote.IsEmpty():
		return nil, fmt.Errorf("%w: %s", usecase.ErrNoQuote, symbol)
	}

	return toQuote(symbol, body.Quote)
}

// toQuote は要求したシンボルをキーとして相場を組み立てます。
func toQuote(symbol string, g dto.GlobalQuote) (*entity.Quote, error) {
	price, err := parseDecimal(g.Price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", g.Price, err)
	}
	high, err := parseDecimal(g.High)
	if err != nil {
		return nil, fmt.Errorf("parse high %q: %w", g.High, err)
	}
	low, err := parseDecimal(g.Low)
	if err != nil {
		return nil, fmt.Errorf("parse low %q: %w", g.Low, err)
	}
	vol, err := parseDecimal(g.Volume)
	if err != nil {
		return nil, fmt.Errorf("parse volume %q: %w", g.Volume, err)
	}
	change, err := parseDecimal(strings.TrimSuffix(strings.TrimSpace(g.ChangePercent), "%"))
	if err != nil {
		return nil, fmt.Errorf("parse change percent %q: %w", g.ChangePercent, err)
	}

	volume := vol.IntPart()
	if vol.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		volume = math.MaxInt64
	}

	return &entity.Quote{
		Symbol:        strings.ToUpper(symbol),
		Price:         price,
		High:          high,
		Low:           low,
		Volume:        volume,
		ChangePercent: change,
	}, nil
}

// parseDecimal は空文字を 0 として扱います。
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
