package entity

// CellType はブックに保存されているセルの型です。CSV など型情報のない取り込み元では CellUnknown になります。
type CellType int

const (
	CellUnknown CellType = iota
	CellText
	CellNumber
	CellBool
	CellDate // 値は RFC3339 形式
)

// Sheet はダウンロードしたスプレッドシートの表です。
// Rows の各行は Columns と同じ位置にセルを持ちます。足りないセルは空文字として扱います。
// Types は nil か、Rows と同じ形でセルの型を持ちます。
type Sheet struct {
	Columns []string
	Rows    [][]string
	Types   [][]CellType
}

// Cell は行 r の列 c の値を返します。範囲外は空文字です。
func (s Sheet) Cell(r, c int) string {
	if r < 0 || r >= len(s.Rows) || c < 0 || c >= len(s.Rows[r]) {
		return ""
	}
	return s.Rows[r][c]
}

// Type は行 r の列 c の型を返します。型情報がなければ CellUnknown です。
func (s Sheet) Type(r, c int) CellType {
	if r < 0 || r >= len(s.Types) || c < 0 || c >= len(s.Types[r]) {
		return CellUnknown
	}
	return s.Types[r][c]
}
