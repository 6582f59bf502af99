package spreadsheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"company_sync/internal/feature/companies/domain/entity"
)

// cellClassifier はセルの保存型と表示書式からドメインのセル型を決めます。
type cellClassifier struct {
	f          *excelize.File
	sheet      string
	dateStyles map[int]bool // スタイル番号 -> 日付書式か
}

// classify はセルの型と、取り込みに使う値を返します。
// 日付書式の数値セルは RFC3339 の文字列に変換します。
func (c *cellClassifier) classify(axis, raw string) (entity.CellType, string, error) {
	ct, err := c.f.GetCellType(c.sheet, axis)
	if err != nil {
		return entity.CellUnknown, "", err
	}

	switch ct {
	case excelize.CellTypeBool:
		return entity.CellBool, raw, nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return entity.CellText, raw, nil
	case excelize.CellTypeDate:
		// ISO 8601 で保存された日付
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return entity.CellDate, t.UTC().Format(time.RFC3339), nil
		}
		return entity.CellText, raw, nil
	}

	isDate, err := c.isDateStyle(axis)
	if err != nil {
		return entity.CellUnknown, "", err
	}
	if isDate {
		if serial, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return entity.CellDate, t.UTC().Format(time.RFC3339), nil
			}
		}
	}
	return entity.CellNumber, raw, nil
}

func (c *cellClassifier) isDateStyle(axis string) (bool, error) {
	idx, err := c.f.GetCellStyle(c.sheet, axis)
	if err != nil {
		return false, err
	}
	if idx == 0 {
		return false, nil
	}
	if v, ok := c.dateStyles[idx]; ok {
		return v, nil
	}

	style, err := c.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	v := builtinDateFormat(style.NumFmt)
	if style.CustomNumFmt != nil {
		v = v || dateLayout(*style.CustomNumFmt)
	}
	c.dateStyles[idx] = v
	return v, nil
}

// builtinDateFormat は組み込み書式番号が日付・時刻の書式かどうかを返します。
func builtinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// dateLayout はユーザー定義の書式が日付・時刻の書式かどうかを返します。
// 引用符・角括弧・エスケープされた文字は書式記号として扱いません。
func dateLayout(layout string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range layout {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	s := strings.ToLower(b.String())
	if s == "general" {
		return false
	}
	return strings.ContainsAny(s, "ydhs") || strings.Contains(s, "m/") || strings.Contains(s, "/m")
}
