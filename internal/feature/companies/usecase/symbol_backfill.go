package usecase

import (
	"context"
	"log/slog"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/reconcile"
)

// SymbolRepository はシンボル未設定の企業を取得するリポジトリのインターフェイスです。
type SymbolRepository interface {
	ListMissingSymbol(ctx context.Context, offset, size int) ([]entity.Company, error)
}

// SymbolBackfillFlow は symbol が未設定の企業に extra_data または WKN からシンボルを補完します。
type SymbolBackfillFlow struct {
	repo      SymbolRepository
	extractor *reconcile.Extractor
	pageSize  int
}

var _ Flow[entity.Company] = (*SymbolBackfillFlow)(nil)

// NewSymbolBackfillFlow は新しい SymbolBackfillFlow を作成します。
func NewSymbolBackfillFlow(repo SymbolRepository, fields reconcile.FieldSets) *SymbolBackfillFlow {
	return &SymbolBackfillFlow{repo: repo, extractor: reconcile.NewExtractor(fields), pageSize: DefaultPageSize}
}

func (f *SymbolBackfillFlow) Name() string { return "symbol backfill" }

// Fetch は symbol が未設定の企業をページングで取得します。入力行と照合対象は同じ集合です。
func (f *SymbolBackfillFlow) Fetch(ctx context.Context, opts Options) (Source[entity.Company], error) {
	rows, err := FetchAll(ctx, f.pageSize, opts.Limit, f.repo.ListMissingSymbol)
	if err != nil {
		return Source[entity.Company]{}, err
	}
	return Source[entity.Company]{Rows: rows, Existing: rows}, nil
}

func (f *SymbolBackfillFlow) PrimaryKey(c entity.Company) string { return reconcile.ByID(c) }

// Keys は ID のみで照合します。同名の別レコードに書き込まないよう名前は使いません。
func (f *SymbolBackfillFlow) Keys(c entity.Company) (string, string) { return reconcile.ByID(c), "" }

func (f *SymbolBackfillFlow) Resolve(_ context.Context, c entity.Company, match *entity.Company) (Resolution, error) {
	if match == nil {
		return Resolution{Skip: true, Reason: "record not indexed"}, nil
	}
	sym, source, ok := f.extractor.SymbolCandidate(c)
	if !ok {
		return Resolution{Skip: true, Reason: "no usable symbol"}, nil
	}
	slog.Info("symbol found", "name", c.DisplayName(), "symbol", sym, "source", source)
	return Resolution{Patch: entity.Patch{Symbol: &sym}}, nil
}

// MergePolicy はこのフローでは extra_data を書き換えないためゼロ値を返します。
func (f *SymbolBackfillFlow) MergePolicy() reconcile.MergePolicy { return reconcile.MergePolicy{} }
