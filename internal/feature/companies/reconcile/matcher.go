package reconcile

import (
	"strings"

	"company_sync/internal/feature/companies/domain/entity"
)

// Index はキー文字列から既存レコードを引く照合用インデックスです。
type Index map[string]*entity.Company

// BuildIndex は key が返す値（前後の空白を除去したもの）でレコードを索引化します。
// 空のキーは索引に含めません。同じキーが複数ある場合は後のレコードが優先されます。
func BuildIndex(companies []entity.Company, key func(entity.Company) string) Index {
	idx := make(Index, len(companies))
	for i := range companies {
		k := strings.TrimSpace(key(companies[i]))
		if k == "" {
			continue
		}
		idx[k] = &companies[i]
	}
	return idx
}

// BySatellog は satellog を索引キーとして返します。
func BySatellog(c entity.Company) string { return c.Satellog }

// ByName は name を索引キーとして返します。
func ByName(c entity.Company) string { return c.Name }

// ByID は ID を索引キーとして返します。
func ByID(c entity.Company) string { return c.ID.String() }

// Matcher は取り込みレコードを既存レコードに対応付けます。
type Matcher struct {
	primary Index
	byName  Index
}

// NewMatcher は一次キーと名前のインデックスから Matcher を生成します。
func NewMatcher(primary, byName Index) *Matcher {
	if primary == nil {
		primary = Index{}
	}
	if byName == nil {
		byName = Index{}
	}
	return &Matcher{primary: primary, byName: byName}
}

// Match は一次キー、次に名前の順で既存レコードを探します。
// 一次キーは異なる名前で登録された同一企業を取り違えにくいため、名前より優先します。
func (m *Matcher) Match(primaryKey, name string) (*entity.Company, bool) {
	if k := strings.TrimSpace(primaryKey); k != "" {
		if c, ok := m.primary[k]; ok {
			return c, true
		}
	}
	if k := strings.TrimSpace(name); k != "" {
		if c, ok := m.byName[k]; ok {
			return c, true
		}
	}
	return nil, false
}

// Len は一次キーインデックスの件数を返します。
func (m *Matcher) Len() int { return len(m.primary) }
