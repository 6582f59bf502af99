// Package entity defines the domain models for the companies feature.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"company_sync/internal/feature/companies/domain/extradata"
)

// Company は companies テーブルの1行を表すドメインエンティティです。
// ID はストアが割り当てる不変の識別子です。
type Company struct {
	ID           uuid.UUID
	Name         string
	Symbol       *string
	WKN          *string
	ISIN         *string
	Satellog     string
	CurrentPrice *decimal.Decimal
	ExtraData    *extradata.Bag
	LastSyncedAt *time.Time
}

// Patch は既存レコードへの部分更新を表します。nil のフィールドは変更しません。
type Patch struct {
	Name         *string
	Satellog     *string
	Symbol       *string
	WKN          *string
	ISIN         *string
	CurrentPrice *decimal.Decimal
	ExtraData    *extradata.Bag
	LastSyncedAt *time.Time
}

// IsEmpty は更新対象のフィールドが1つもないかどうかを返します。
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Satellog == nil && p.Symbol == nil && p.WKN == nil &&
		p.ISIN == nil && p.CurrentPrice == nil && p.ExtraData == nil && p.LastSyncedAt == nil
}

// NewCompany はパッチの内容から新規作成用のエンティティを組み立てます。ID はストアが割り当てます。
func (p Patch) NewCompany() Company {
	c := Company{
		Symbol:       p.Symbol,
		WKN:          p.WKN,
		ISIN:         p.ISIN,
		CurrentPrice: p.CurrentPrice,
		ExtraData:    p.ExtraData,
		LastSyncedAt: p.LastSyncedAt,
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Satellog != nil {
		c.Satellog = *p.Satellog
	}
	if c.ExtraData == nil {
		c.ExtraData = extradata.New()
	}
	return c
}

// Apply はパッチをエンティティのコピーに適用した結果を返します。
func (c Company) Apply(p Patch) Company {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Satellog != nil {
		c.Satellog = *p.Satellog
	}
	if p.Symbol != nil {
		c.Symbol = p.Symbol
	}
	if p.WKN != nil {
		c.WKN = p.WKN
	}
	if p.ISIN != nil {
		c.ISIN = p.ISIN
	}
	if p.CurrentPrice != nil {
		c.CurrentPrice = p.CurrentPrice
	}
	if p.ExtraData != nil {
		c.ExtraData = p.ExtraData
	}
	if p.LastSyncedAt != nil {
		c.LastSyncedAt = p.LastSyncedAt
	}
	return c
}

// DisplayName はログ出力用の名前を返します。
func (c Company) DisplayName() string {
	if c.Name == "" {
		return "Unknown"
	}
	return c.Name
}
