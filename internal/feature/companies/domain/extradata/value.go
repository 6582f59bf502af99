// Package extradata は companies.extra_data に格納される属性バッグの型を定義します。
package extradata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind は Value が保持する値の種別です。
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	// KindJSON は既存行が保持しているネストしたJSON（配列・オブジェクト）をそのまま保持します。
	KindJSON
)

// String は種別名を返します。
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value は extra_data の1フィールド分の値です。ゼロ値は null を表します。
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
	raw  json.RawMessage
}

// Null は null 値を返します。
func Null() Value { return Value{} }

// String は文字列値を返します。
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number は数値を返します。
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Bool は真偽値を返します。
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time はタイムスタンプ値を返します。JSONではRFC3339文字列として保存されます。
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// RawJSON はネストしたJSONをそのまま保持する値を返します。
func RawJSON(raw json.RawMessage) Value {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{kind: KindJSON, raw: append(json.RawMessage(nil), raw...)}
	}
	return Value{kind: KindJSON, raw: buf.Bytes()}
}

// Kind は値の種別を返します。
func (v Value) Kind() Kind { return v.kind }

// IsNull は値が null かどうかを返します。
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float は数値として解釈できる場合にその値を返します。
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IsZero は値が「空」とみなされるかどうかを返します。
// null・空文字列・0・false・空の配列/オブジェクトが該当します。
func (v Value) IsZero() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == ""
	case KindNumber:
		return v.n == 0
	case KindBool:
		return !v.b
	case KindTime:
		return v.t.IsZero()
	case KindJSON:
		s := string(v.raw)
		return s == "" || s == "[]" || s == "{}"
	default:
		return true
	}
}

// String は値の文字列表現を返します。null は空文字列になります。
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindJSON:
		return string(v.raw)
	default:
		return ""
	}
}

// Equal は2つの値が同じ種別・内容かどうかを返します。
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindJSON:
		return bytes.Equal(v.raw, o.raw)
	default:
		return false
	}
}

// MarshalJSON は値をJSONにエンコードします。
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	case KindJSON:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	default:
		return nil, fmt.Errorf("extradata: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON はJSONから値をデコードします。
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromJSON はJSONの1値を Value に変換します。
// 文字列はタイムスタンプ形式であっても文字列として扱います。
func FromJSON(raw []byte) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Null(), nil
	}
	switch trimmed[0] {
	case 'n':
		return Null(), nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, fmt.Errorf("extradata: decode string: %w", err)
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, fmt.Errorf("extradata: decode bool: %w", err)
		}
		return Bool(b), nil
	case '{', '[':
		if !json.Valid(trimmed) {
			return Value{}, fmt.Errorf("extradata: invalid nested json")
		}
		return RawJSON(trimmed), nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return Value{}, fmt.Errorf("extradata: decode number: %w", err)
		}
		return Number(n), nil
	}
}

// maxExactInt は float64 で正確に表せる整数の上限です。
const maxExactInt = 1 << 53

// Infer は型情報のないセル文字列を最も自然な型の値に変換します。
// 数値・真偽値として解釈できない場合は文字列になります。
// 先頭ゼロ付きの数字列と float64 で正確に表せない整数は識別子として文字列のまま残します。
func Infer(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return Null()
	}
	if !identifierLike(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpP_") &&
			!math.IsNaN(n) && !math.IsInf(n, 0) {
			return Number(n)
		}
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}
	return String(s)
}

// identifierLike は数値に見えても数値に変換すると値が変わる文字列かどうかを返します。
func identifierLike(s string) bool {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9' {
		return true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Is(err, strconv.ErrRange)
	}
	return i > maxExactInt || i < -maxExactInt
}
