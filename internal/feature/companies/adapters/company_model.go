package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/domain/extradata"
)

// CompanyModel は companies テーブルの行です。
type CompanyModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Name         string              `gorm:"not null;index"`
	Symbol       *string             `gorm:"size:32;index"`
	WKN          *string             `gorm:"column:wkn;size:32"`
	ISIN         *string             `gorm:"column:isin;size:32"`
	Satellog     string              `gorm:"index"`
	CurrentPrice decimal.NullDecimal `gorm:"type:numeric"`
	ExtraData    datatypes.JSON
	LastSyncedAt *time.Time
}

func (CompanyModel) TableName() string {
	return "companies"
}

// BeforeCreate は ID が未設定の場合に UUID を割り当てます。
func (m *CompanyModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func encodeExtraData(b *extradata.Bag) (datatypes.JSON, error) {
	if b == nil {
		b = extradata.New()
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode extra_data: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func toModel(e entity.Company) (CompanyModel, error) {
	extra, err := encodeExtraData(e.ExtraData)
	if err != nil {
		return CompanyModel{}, err
	}
	m := CompanyModel{
		ID:           e.ID,
		Name:         e.Name,
		Symbol:       e.Symbol,
		WKN:          e.WKN,
		ISIN:         e.ISIN,
		Satellog:     e.Satellog,
		ExtraData:    extra,
		LastSyncedAt: e.LastSyncedAt,
	}
	if e.CurrentPrice != nil {
		m.CurrentPrice = decimal.NewNullDecimal(*e.CurrentPrice)
	}
	return m, nil
}

func toEntity(m CompanyModel) (entity.Company, error) {
	extra := extradata.New()
	if len(m.ExtraData) > 0 {
		if err := json.Unmarshal(m.ExtraData, extra); err != nil {
			return entity.Company{}, fmt.Errorf("decode extra_data of %s: %w", m.ID, err)
		}
	}
	e := entity.Company{
		ID:           m.ID,
		Name:         m.Name,
		Symbol:       m.Symbol,
		WKN:          m.WKN,
		ISIN:         m.ISIN,
		Satellog:     m.Satellog,
		ExtraData:    extra,
		LastSyncedAt: m.LastSyncedAt,
	}
	if m.CurrentPrice.Valid {
		p := m.CurrentPrice.Decimal
		e.CurrentPrice = &p
	}
	return e, nil
}

// patchColumns はパッチのうち値が設定されたフィールドだけを列名をキーとした map にします。
func patchColumns(p entity.Patch) (map[string]any, error) {
	cols := make(map[string]any)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Satellog != nil {
		cols["satellog"] = *p.Satellog
	}
	if p.Symbol != nil {
		cols["symbol"] = *p.Symbol
	}
	if p.WKN != nil {
		cols["wkn"] = *p.WKN
	}
	if p.ISIN != nil {
		cols["isin"] = *p.ISIN
	}
	if p.CurrentPrice != nil {
		cols["current_price"] = decimal.NewNullDecimal(*p.CurrentPrice)
	}
	if p.ExtraData != nil {
		extra, err := encodeExtraData(p.ExtraData)
		if err != nil {
			return nil, err
		}
		cols["extra_data"] = extra
	}
	if p.LastSyncedAt != nil {
		cols["last_synced_at"] = *p.LastSyncedAt
	}
	return cols, nil
}
