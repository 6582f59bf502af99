package entity

import "github.com/shopspring/decimal"

// Quote はマーケットデータ API から取得した1銘柄の最新相場です。
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        int64           `json:"volume"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}
