// Package spreadsheet downloads and parses the company spreadsheet feed.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"company_sync/internal/feature/companies/domain/entity"
)

// ErrEmpty は表にヘッダー行がない場合のエラーです。
var ErrEmpty = errors.New("spreadsheet is empty")

var zipMagic = []byte("PK\x03\x04")

// Parse は xlsx（zip 形式）であれば最初のシートを、それ以外は CSV として読み込みます。
// 先頭の空でない行をヘッダーとし、すべて空の行は取り除きます。
// xlsx ではセルの型を Sheet.Types に残し、日付書式のセルは RFC3339 に変換します。CSV には型情報がありません。
func Parse(data []byte) (entity.Sheet, error) {
	var (
		records [][]string
		types   [][]entity.CellType
		err     error
	)
	if bytes.HasPrefix(data, zipMagic) {
		records, types, err = parseXLSX(data)
	} else {
		records, err = parseCSV(data)
	}
	if err != nil {
		return entity.Sheet{}, err
	}
	return toSheet(records, types)
}

func parseXLSX(data []byte) ([][]string, [][]entity.CellType, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmpty
	}
	name := sheets[0]

	// 表示書式を適用しない値を読む（日付はシリアル値、数値は丸められない）
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	c := &cellClassifier{f: f, sheet: name, dateStyles: make(map[int]bool)}
	types := make([][]entity.CellType, len(rows))
	for r, row := range rows {
		types[r] = make([]entity.CellType, len(row))
		for col, raw := range row {
			if raw == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col+1, r+1)
			if err != nil {
				return nil, nil, err
			}
			t, v, err := c.classify(axis, raw)
			if err != nil {
				return nil, nil, fmt.Errorf("read cell %s: %w", axis, err)
			}
			types[r][col] = t
			row[col] = v
		}
	}
	return rows, types, nil
}

func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toSheet(records [][]string, types [][]entity.CellType) (entity.Sheet, error) {
	var sheet entity.Sheet
	for i, row := range records {
		if blank(row) {
			continue
		}
		if sheet.Columns == nil {
			cols := make([]string, len(row))
			for j, c := range row {
				cols[j] = strings.TrimSpace(c)
			}
			sheet.Columns = cols
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
		if types != nil {
			sheet.Types = append(sheet.Types, types[i])
		}
	}
	if len(sheet.Columns) == 0 {
		return entity.Sheet{}, ErrEmpty
	}
	return sheet, nil
}
