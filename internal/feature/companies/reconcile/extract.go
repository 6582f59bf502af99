package reconcile

import (
	"strings"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/domain/extradata"
)

// Symbol sources reported by SymbolCandidate.
const (
	SourceExtraData = "extra_data"
	SourceWKN       = "wkn"
)

// Extractor は extra_data から優先順位付きでティッカーシンボルを抽出します。
type Extractor struct {
	fields FieldSets
}

// NewExtractor は指定のフィールドセットを用いる Extractor を生成します。
func NewExtractor(fields FieldSets) *Extractor {
	return &Extractor{fields: fields}
}

// usable は値が空でもマーカーでもない場合にその文字列表現を返します。
func (e *Extractor) usable(v extradata.Value) (string, bool) {
	if v.IsZero() {
		return "", false
	}
	s := strings.TrimSpace(v.String())
	if e.fields.IsSentinel(s) {
		return "", false
	}
	return s, true
}

// Extract は優先キーを順に調べ、最初に有効な値を持つキーの値を正規化して返します。
// 優先キーに値を持つものが1つもない場合は、キー名に symbol / ticker を含むキーを
// 辞書順に走査し、最初に正規化に成功した値を返します。
//
// 優先キーの最初の値が正規化に失敗した場合は見つからなかったものとして扱い、
// フォールバック走査は行いません。
//
// フォールバック走査でも NAN などのセンチネル値は優先キーと同じく読み飛ばします。
// "NONE" のように正規化を通ってしまう値がシンボルとして採用されることはありません。
func (e *Extractor) Extract(b *extradata.Bag) (string, bool) {
	if b.Len() == 0 {
		return "", false
	}

	for _, key := range e.fields.SymbolPriority {
		v, ok := b.Get(key)
		if !ok {
			continue
		}
		s, ok := e.usable(v)
		if !ok {
			continue
		}
		return Normalize(s)
	}

	for _, key := range b.SortedKeys() {
		if !e.isSymbolKey(key) {
			continue
		}
		v, _ := b.Get(key)
		s, ok := e.usable(v)
		if !ok {
			continue
		}
		if sym, ok := Normalize(s); ok {
			return sym, true
		}
	}
	return "", false
}

func (e *Extractor) isSymbolKey(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range e.fields.SymbolKeyHints {
		if strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

// SymbolCandidate は企業レコードから最も確からしいシンボルとその取得元を返します。
// extra_data を優先し、見つからなければ WKN を正規化して用います。ISIN はシンボルとして信頼できないため使いません。
func (e *Extractor) SymbolCandidate(c entity.Company) (symbol, source string, ok bool) {
	if sym, ok := e.Extract(c.ExtraData); ok {
		return sym, SourceExtraData, true
	}
	if c.WKN != nil {
		if sym, ok := Normalize(*c.WKN); ok {
			return sym, SourceWKN, true
		}
	}
	return "", "", false
}
