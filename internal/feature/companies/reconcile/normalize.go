package reconcile

import "strings"

const maxSymbolLength = 10

// Normalize は生の文字列を正規化されたティッカーシンボルに変換します。
// 前後の空白を除去して大文字化し、最初の '.' または ':' 以降（取引所サフィックス）を切り捨てたうえで、
// 1〜10文字の英数字とハイフンのみで構成されているかを検証します。
func Normalize(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, ".:"); i >= 0 {
		s = s[:i]
	}
	if len(s) < 1 || len(s) > maxSymbolLength {
		return "", false
	}

	alnum := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			alnum = true
		case r == '-':
		default:
			return "", false
		}
	}
	// ハイフンのみのコードは無効
	if !alnum {
		return "", false
	}
	return s, true
}
