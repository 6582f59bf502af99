package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"company_sync/internal/feature/companies/domain/entity"
)

// fieldSampleSize はフィールド一覧の集計に使う企業数です。
const fieldSampleSize = 100

// StatusRepository は同期状況の集計に必要なリポジトリのインターフェイスです。
type StatusRepository interface {
	CompanyPager
	TickerRepository
	Count(ctx context.Context) (int64, error)
}

// SyncStatus は株価同期の状況です。
type SyncStatus struct {
	LastPriceUpdate  *time.Time
	TotalCompanies   int64
	StocksWithPrices int
}

// StatusUsecase は同期状況と extra_data のフィールド一覧を提供します。
type StatusUsecase struct {
	repo StatusRepository
}

// NewStatusUsecase は新しい StatusUsecase を作成します。
func NewStatusUsecase(repo StatusRepository) *StatusUsecase {
	return &StatusUsecase{repo: repo}
}

// SyncStatus は全企業数、価格を持つ企業数、最新の価格更新時刻を返します。
func (u *StatusUsecase) SyncStatus(ctx context.Context) (*SyncStatus, error) {
	total, err := u.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count companies: %w", err)
	}

	page := func(ctx context.Context, offset, size int) ([]entity.Company, error) {
		return u.repo.ListWithExtraKey(ctx, FieldCurrentPrice, offset, size)
	}
	priced, err := FetchAll(ctx, DefaultPageSize, 0, page)
	if err != nil {
		return nil, fmt.Errorf("list priced companies: %w", err)
	}

	st := &SyncStatus{TotalCompanies: total, StocksWithPrices: len(priced)}
	for _, c := range priced {
		v, ok := c.ExtraData.Get(FieldPriceUpdate)
		if !ok || v.IsZero() {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.String()))
		if err != nil {
			continue
		}
		if st.LastPriceUpdate == nil || ts.After(*st.LastPriceUpdate) {
			st.LastPriceUpdate = &ts
		}
	}
	return st, nil
}

// Fields は先頭の企業から抽出した extra_data のキーを昇順で返します。
func (u *StatusUsecase) Fields(ctx context.Context) ([]string, error) {
	sample, err := u.repo.ListPage(ctx, 0, fieldSampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample companies: %w", err)
	}

	seen := make(map[string]struct{})
	for _, c := range sample {
		for _, k := range c.ExtraData.Keys() {
			seen[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields, nil
}
