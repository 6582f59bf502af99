// Package reconcile は同期フロー間で共有される照合・抽出・マージのロジックを提供します。
// このパッケージはI/Oを持たず、すべて純粋関数として実装されています。
package reconcile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldSetsVersion は対応しているフィールドセット定義のバージョンです。
const FieldSetsVersion = 1

//go:embed fieldsets.yaml
var defaultFieldSetsYAML []byte

// FieldSets は同期フローが参照するフィールド名の集合をまとめた設定です。
type FieldSets struct {
	Version        int               `yaml:"version"`
	SymbolPriority []string          `yaml:"symbol_priority"`
	SymbolKeyHints []string          `yaml:"symbol_key_hints"`
	Sentinels      []string          `yaml:"sentinels"`
	Protected      []string          `yaml:"protected"`
	Core           []string          `yaml:"core"`
	Rename         map[string]string `yaml:"rename"`
	NameColumns    []string          `yaml:"name_columns"`
	KeyColumn      string            `yaml:"key_column"`
	TickerField    string            `yaml:"ticker_field"`
}

// FieldSet はフィールド名の集合です。
type FieldSet map[string]struct{}

// NewFieldSet は名前の一覧から FieldSet を生成します。
func NewFieldSet(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has は名前が集合に含まれるかどうかを返します。
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// ProtectedSet は保護フィールドの集合を返します。
func (f FieldSets) ProtectedSet() FieldSet { return NewFieldSet(f.Protected...) }

// CoreSet はテーブル列として扱うフィールドの集合を返します。
func (f FieldSets) CoreSet() FieldSet { return NewFieldSet(f.Core...) }

// MapColumn はスプレッドシートの列名をストアのフィールド名に変換します。
func (f FieldSets) MapColumn(col string) string {
	if mapped, ok := f.Rename[col]; ok {
		return mapped
	}
	return col
}

// IsSentinel は値が「値なし」を表すマーカーかどうかを返します。
func (f FieldSets) IsSentinel(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for _, m := range f.Sentinels {
		if strings.EqualFold(s, m) {
			return true
		}
	}
	return false
}

// Validate は定義が利用可能な状態かどうかを検証します。
func (f FieldSets) Validate() error {
	if f.Version != FieldSetsVersion {
		return fmt.Errorf("fieldsets: unsupported version %d (want %d)", f.Version, FieldSetsVersion)
	}
	if len(f.SymbolPriority) == 0 {
		return fmt.Errorf("fieldsets: symbol_priority is empty")
	}
	if f.TickerField == "" {
		return fmt.Errorf("fieldsets: ticker_field is empty")
	}
	return nil
}

// ParseFieldSets はYAMLからフィールドセットを読み込み、検証します。
func ParseFieldSets(data []byte) (FieldSets, error) {
	var f FieldSets
	if err := yaml.Unmarshal(data, &f); err != nil {
		return FieldSets{}, fmt.Errorf("fieldsets: %w", err)
	}
	if err := f.Validate(); err != nil {
		return FieldSets{}, err
	}
	return f, nil
}

// DefaultFieldSets は組み込みのフィールドセットを返します。
func DefaultFieldSets() FieldSets {
	f, err := ParseFieldSets(defaultFieldSetsYAML)
	if err != nil {
		// 組み込み定義はビルド時に固定されるため、ここでの失敗はプログラムの誤りです。
		panic(err)
	}
	return f
}

// LoadFieldSets は path が空なら組み込み定義を、そうでなければファイルの定義を返します。
func LoadFieldSets(path string) (FieldSets, error) {
	if path == "" {
		return DefaultFieldSets(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FieldSets{}, fmt.Errorf("fieldsets: read %s: %w", path, err)
	}
	return ParseFieldSets(data)
}
