package extradata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Bag は挿入順を保持する文字列キー → Value のマップです。
// ゼロ値・nil はどちらも空のバッグとして扱えます。
type Bag struct {
	keys []string
	vals map[string]Value
}

// New は空のバッグを生成します。
func New() *Bag {
	return &Bag{vals: map[string]Value{}}
}

// FromMap はマップからバッグを生成します。Goのマップは順序を持たないため、キーは辞書順に並びます。
func FromMap(m map[string]Value) *Bag {
	b := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b
}

// Len はキーの数を返します。
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Get は指定キーの値を返します。
func (b *Bag) Get(key string) (Value, bool) {
	if b == nil || b.vals == nil {
		return Value{}, false
	}
	v, ok := b.vals[key]
	return v, ok
}

// Has はキーが存在するかどうかを返します。
func (b *Bag) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Set はキーに値を設定します。既存キーは位置を保ったまま上書きされ、新しいキーは末尾に追加されます。
func (b *Bag) Set(key string, v Value) {
	if b.vals == nil {
		b.vals = map[string]Value{}
	}
	if _, ok := b.vals[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.vals[key] = v
}

// Delete はキーを削除します。
func (b *Bag) Delete(key string) {
	if b == nil || b.vals == nil {
		return
	}
	if _, ok := b.vals[key]; !ok {
		return
	}
	delete(b.vals, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys は挿入順のキー一覧のコピーを返します。
func (b *Bag) Keys() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.keys...)
}

// SortedKeys は辞書順に並べたキー一覧を返します。
func (b *Bag) SortedKeys() []string {
	keys := b.Keys()
	sort.Strings(keys)
	return keys
}

// Clone はバッグの複製を返します。nil の場合は空のバッグを返します。
func (b *Bag) Clone() *Bag {
	out := New()
	if b == nil {
		return out
	}
	for _, k := range b.keys {
		out.Set(k, b.vals[k])
	}
	return out
}

// Equal はキー集合と各値が一致するかどうかを返します。キーの順序は比較しません。
func (b *Bag) Equal(o *Bag) bool {
	if b.Len() != o.Len() {
		return false
	}
	for _, k := range b.Keys() {
		ov, ok := o.Get(k)
		if !ok {
			return false
		}
		v, _ := b.Get(k)
		if !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON はキーの挿入順を保ったままJSONオブジェクトにエンコードします。
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if b != nil {
		for i, k := range b.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := b.vals[k].MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("extradata: key %q: %w", k, err)
			}
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON はJSONオブジェクトをキーの出現順を保ってデコードします。null は空のバッグになります。
func (b *Bag) UnmarshalJSON(data []byte) error {
	b.keys = nil
	b.vals = map[string]Value{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("extradata: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("extradata: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("extradata: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("extradata: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("extradata: key %q: %w", key, err)
		}
		v, err := FromJSON(raw)
		if err != nil {
			return fmt.Errorf("extradata: key %q: %w", key, err)
		}
		b.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("extradata: %w", err)
	}
	return nil
}
