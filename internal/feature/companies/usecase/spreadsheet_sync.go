package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/domain/extradata"
	"company_sync/internal/feature/companies/reconcile"
)

// SheetSource は同期元のスプレッドシートを取得するインターフェイスです。
type SheetSource interface {
	Fetch(ctx context.Context) (entity.Sheet, error)
}

// CompanyPager は全企業を決定的な順序でページ単位に取得するインターフェイスです。
type CompanyPager interface {
	ListPage(ctx context.Context, offset, size int) ([]entity.Company, error)
}

// SheetRow はスプレッドシートの1行を列名と値の組で表したものです。
type SheetRow struct {
	Key     string // satellog（一次照合キー）
	Name    string
	Columns []string
	Cells   []string
	Types   []entity.CellType // 型情報がない取り込み元では nil
}

// sheetLayout はヘッダーから判定したキー列と名前列の位置です。
type sheetLayout struct {
	key  int
	name int // -1 はキー列を名前として使う
}

// SpreadsheetSyncFlow はスプレッドシートの行を companies テーブルに反映します。
// 照合できた行は更新し、できなかった行は新規作成します。
type SpreadsheetSyncFlow struct {
	source   SheetSource
	repo     CompanyPager
	fields   reconcile.FieldSets
	pageSize int
}

var _ Flow[SheetRow] = (*SpreadsheetSyncFlow)(nil)

// NewSpreadsheetSyncFlow は新しい SpreadsheetSyncFlow を作成します。
func NewSpreadsheetSyncFlow(source SheetSource, repo CompanyPager, fields reconcile.FieldSets) *SpreadsheetSyncFlow {
	return &SpreadsheetSyncFlow{source: source, repo: repo, fields: fields, pageSize: DefaultPageSize}
}

func (f *SpreadsheetSyncFlow) Name() string { return "spreadsheet sync" }

// Fetch はスプレッドシートと既存の全企業を取得します。
func (f *SpreadsheetSyncFlow) Fetch(ctx context.Context, _ Options) (Source[SheetRow], error) {
	sheet, err := f.source.Fetch(ctx)
	if err != nil {
		return Source[SheetRow]{}, fmt.Errorf("download spreadsheet: %w", err)
	}
	if len(sheet.Columns) == 0 {
		return Source[SheetRow]{}, fmt.Errorf("spreadsheet has no header row")
	}
	slog.Info("spreadsheet loaded", "rows", len(sheet.Rows), "columns", len(sheet.Columns))

	existing, err := FetchAll(ctx, f.pageSize, 0, f.repo.ListPage)
	if err != nil {
		return Source[SheetRow]{}, fmt.Errorf("load existing companies: %w", err)
	}

	layout := f.detectLayout(sheet.Columns)
	rows := make([]SheetRow, 0, len(sheet.Rows))
	for r := range sheet.Rows {
		cells := make([]string, len(sheet.Columns))
		var types []entity.CellType
		if sheet.Types != nil {
			types = make([]entity.CellType, len(sheet.Columns))
		}
		for c := range sheet.Columns {
			cells[c] = sheet.Cell(r, c)
			if types != nil {
				types[c] = sheet.Type(r, c)
			}
		}
		key := strings.TrimSpace(cells[layout.key])
		name := key
		if layout.name >= 0 {
			if v := strings.TrimSpace(cells[layout.name]); v != "" && !strings.EqualFold(v, "nan") {
				name = v
			}
		}
		rows = append(rows, SheetRow{Key: key, Name: name, Columns: sheet.Columns, Cells: cells, Types: types})
	}
	return Source[SheetRow]{Rows: rows, Existing: existing}, nil
}

// detectLayout はキー列（大文字小文字を区別しない）と名前列を探します。
// キー列がなければ先頭列をキーとし、名前列がなければキーの値を名前とします。
func (f *SpreadsheetSyncFlow) detectLayout(columns []string) sheetLayout {
	l := sheetLayout{key: 0, name: -1}
	for i, col := range columns {
		if strings.EqualFold(strings.TrimSpace(col), f.fields.KeyColumn) {
			l.key = i
			break
		}
	}
	for _, want := range f.fields.NameColumns {
		for i, col := range columns {
			if i != l.key && strings.TrimSpace(col) == want {
				l.name = i
				return l
			}
		}
	}
	return l
}

func (f *SpreadsheetSyncFlow) PrimaryKey(c entity.Company) string { return reconcile.BySatellog(c) }

func (f *SpreadsheetSyncFlow) Keys(row SheetRow) (string, string) { return row.Key, row.Name }

// Resolve は行からパッチを組み立てます。キーが空または "nan" の行はスキップします。
func (f *SpreadsheetSyncFlow) Resolve(_ context.Context, row SheetRow, _ *entity.Company) (Resolution, error) {
	if row.Key == "" || strings.EqualFold(row.Key, "nan") {
		return Resolution{Skip: true, Reason: "missing " + f.fields.KeyColumn}, nil
	}
	return Resolution{Patch: f.buildPatch(row)}, nil
}

// buildPatch は空セルと保護フィールドを除外し、テーブル列の値は列に、それ以外は元の列名のまま extra_data に入れます。
func (f *SpreadsheetSyncFlow) buildPatch(row SheetRow) entity.Patch {
	key, name := row.Key, row.Name
	patch := entity.Patch{Name: &name, Satellog: &key}

	protected := f.fields.ProtectedSet()
	core := f.fields.CoreSet()
	extra := extradata.New()

	for i, col := range row.Columns {
		col = strings.TrimSpace(col)
		if col == "" || i >= len(row.Cells) || strings.EqualFold(col, f.fields.KeyColumn) {
			continue
		}
		raw := strings.TrimSpace(row.Cells[i])
		v := cellValue(raw, row.cellType(i))
		if v.IsNull() {
			continue
		}
		mapped := f.fields.MapColumn(col)
		if protected.Has(mapped) {
			continue
		}
		if core.Has(mapped) {
			switch mapped {
			case "symbol":
				if sym, ok := reconcile.Normalize(raw); ok {
					patch.Symbol = &sym
				}
			case "wkn":
				patch.WKN = &raw
			case "isin":
				patch.ISIN = &raw
			}
			continue
		}
		extra.Set(col, v)
	}

	if extra.Len() > 0 {
		patch.ExtraData = extra
	}
	return patch
}

func (r SheetRow) cellType(i int) entity.CellType {
	if i >= len(r.Types) {
		return entity.CellUnknown
	}
	return r.Types[i]
}

// cellValue はブック上の型に従ってセルを変換します。テキストのセルは数値に見えても文字列のままです。
// 型情報がない場合は extradata.Infer で推定します。
func cellValue(raw string, t entity.CellType) extradata.Value {
	if raw == "" {
		return extradata.Null()
	}
	switch t {
	case entity.CellText:
		return extradata.String(raw)
	case entity.CellNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return extradata.Number(n)
		}
	case entity.CellBool:
		return extradata.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case entity.CellDate:
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return extradata.Time(ts)
		}
	}
	return extradata.Infer(raw)
}

func (f *SpreadsheetSyncFlow) MergePolicy() reconcile.MergePolicy {
	return reconcile.MergePolicy{Protected: f.fields.ProtectedSet(), Mode: reconcile.PreserveProtected}
}
