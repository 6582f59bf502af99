package reconcile

import "company_sync/internal/feature/companies/domain/extradata"

// MergeMode は保護フィールドの扱い方です。
type MergeMode int

const (
	// PreserveProtected は保護フィールド以外のキーを上書きします（スプレッドシート同期用）。
	PreserveProtected MergeMode = iota
	// OnlyProtected は保護フィールドのキーのみを上書きします（株価更新用）。
	OnlyProtected
)

// MergePolicy は新しい extra_data を既存の extra_data に重ねる規則です。
type MergePolicy struct {
	Protected FieldSet
	Mode      MergeMode
}

// Merge は既存データを起点に incoming のキーを重ねた結果を返します。
// どちらの引数も変更しません。
func (p MergePolicy) Merge(existing, incoming *extradata.Bag) *extradata.Bag {
	merged := existing.Clone()
	for _, key := range incoming.Keys() {
		protected := p.Protected.Has(key)
		switch p.Mode {
		case OnlyProtected:
			if !protected {
				continue
			}
		default:
			if protected {
				continue
			}
		}
		v, _ := incoming.Get(key)
		merged.Set(key, v)
	}
	return merged
}
