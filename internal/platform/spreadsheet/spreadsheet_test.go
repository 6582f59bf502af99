package spreadsheet

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"company_sync/internal/feature/companies/domain/entity"
)

// buildXLSX は rows を最初のシートに書き込んだ xlsx のバイト列を返します。
func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParse_XLSX(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, [][]any{
		{"satellog", "Name", "Ticker", "Employees"},
		{"S1", "Acme", "ACME", 120},
		{},
		{"S2", "Beta"},
	})

	sheet, err := Parse(data)

	require.NoError(t, err)
	assert.Equal(t, []string{"satellog", "Name", "Ticker", "Employees"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2, "blank rows are dropped")
	assert.Equal(t, "120", sheet.Cell(0, 3))
	assert.Equal(t, "Beta", sheet.Cell(1, 1))
	assert.Equal(t, "", sheet.Cell(1, 3), "missing trailing cells read as empty")
}

func TestParse_CSV(t *testing.T) {
	t.Parallel()

	data := []byte("\xef\xbb\xbf\n satellog ,Name,Sector\nS1,\"Acme, Inc\",Tech\nS2,Beta\n,,\n")

	sheet, err := Parse(data)

	require.NoError(t, err)
	assert.Equal(t, []string{"satellog", "Name", "Sector"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Acme, Inc", sheet.Cell(0, 1))
	assert.Equal(t, "", sheet.Cell(1, 2))
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(""))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse([]byte("PK\x03\x04 not really a zip"))
	assert.ErrorContains(t, err, "open xlsx")
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	xlsx := buildXLSX(t, [][]any{{"satellog", "Name"}, {"S1", "Acme"}})

	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr string
		wantLen int
	}{
		{name: "success", status: http.StatusOK, body: xlsx, wantLen: 1},
		{name: "not found", status: http.StatusNotFound, body: []byte("nope"), wantErr: "http 404"},
		{name: "empty body", status: http.StatusOK, body: nil, wantErr: "spreadsheet is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			sheet, err := NewFetcher(server.URL, server.Client()).Fetch(context.Background())

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, sheet.Rows, tt.wantLen)
		})
	}
}

func TestParse_XLSXCellTypes(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	header := []any{"satellog", "Ticker", "Code", "Price", "Listed", "Founded", "Amount", "Active"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row := []any{"S1", "0700", "12345678901234567890", 12.5, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 45356, 45356, true}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))

	isoDate := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &isoDate})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "F2", "F2", dateStyle))
	plain := "#,##0.00"
	numStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &plain})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "G2", "G2", numStyle))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := Parse(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)

	tests := []struct {
		col       int
		wantType  entity.CellType
		wantValue string
	}{
		{0, entity.CellText, "S1"},
		{1, entity.CellText, "0700"},
		{2, entity.CellText, "12345678901234567890"},
		{3, entity.CellNumber, "12.5"},
		{4, entity.CellDate, "2024-03-05T00:00:00Z"},
		{5, entity.CellDate, "2024-03-05T00:00:00Z"},
		{6, entity.CellNumber, "45356"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantType, got.Type(0, tt.col), "type of %s", got.Columns[tt.col])
		assert.Equal(t, tt.wantValue, got.Cell(0, tt.col), "value of %s", got.Columns[tt.col])
	}
	assert.Equal(t, entity.CellBool, got.Type(0, 7))
}

func TestParse_CSVHasNoCellTypes(t *testing.T) {
	t.Parallel()

	got, err := Parse([]byte("satellog,Ticker\nS1,0700\n"))
	require.NoError(t, err)

	assert.Nil(t, got.Types)
	assert.Equal(t, entity.CellUnknown, got.Type(0, 1))
	assert.Equal(t, "0700", got.Cell(0, 1))
}

func TestDateLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		layout string
		want   bool
	}{
		{"yyyy-mm-dd", true},
		{"dd.mm.yyyy hh:mm", true},
		{"h:mm:ss", true},
		{"[$-409]mmmm d, yyyy", true},
		{"General", false},
		{"#,##0.00", false},
		{"0.0%", false},
		{`#,##0 "days"`, false},
		{`[Red]0.00`, false},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dateLayout(tt.layout))
		})
	}
}
