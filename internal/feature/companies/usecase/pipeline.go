package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/reconcile"
)

const (
	maxLoggedFailures = 5   // 詳細をログに出す失敗件数の上限
	progressEvery     = 100 // 進捗ログを出す間隔
)

// CompanyWriter は同期結果をストアに書き込む操作を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type CompanyWriter interface {
	Update(ctx context.Context, id uuid.UUID, patch entity.Patch) error
	CreateBatch(ctx context.Context, companies []entity.Company) error
}

// Options は1回の実行に対する指定です。
type Options struct {
	DryRun bool // true の場合はストアに書き込まない
	Limit  int  // 正の場合は処理する行数の上限
}

// Source はフローが取得した入力行と照合対象の既存レコードです。
type Source[R any] struct {
	Rows     []R
	Existing []entity.Company
}

// Resolution は1行に対するフローの判断結果です。
type Resolution struct {
	Patch    entity.Patch
	Skip     bool
	Reason   string // スキップ理由（ログ用）
	APICalls int    // この行の解決で消費した外部 API 呼び出し数
}

// Flow は取得・照合・解決の3段階を持つ同期フローです。適用段階は Pipeline が共通で担います。
type Flow[R any] interface {
	// Name はレポートとログに使うフロー名です。
	Name() string
	// Fetch は入力行と既存レコードを取得します。エラーは実行全体の失敗として扱われます。
	Fetch(ctx context.Context, opts Options) (Source[R], error)
	// PrimaryKey は既存レコードの一次照合キーを返します。
	PrimaryKey(c entity.Company) string
	// Keys は入力行の一次照合キーと名前を返します。
	Keys(row R) (primary, name string)
	// Resolve は入力行から書き込み内容を決定します。match は照合できた既存レコードで、なければ nil です。
	// ErrStop をラップしたエラーを返すと、それ以降の行は処理されません。
	Resolve(ctx context.Context, row R, match *entity.Company) (Resolution, error)
	// MergePolicy は extra_data を既存データに重ねる規則です。
	MergePolicy() reconcile.MergePolicy
}

// Pipeline はフローの実行と、更新・作成の適用を担います。
type Pipeline struct {
	store CompanyWriter
	now   func() time.Time
}

// NewPipeline は新しい Pipeline を作成します。
func NewPipeline(store CompanyWriter) *Pipeline {
	return &Pipeline{store: store, now: time.Now}
}

type plannedUpdate struct {
	target *entity.Company
	patch  entity.Patch
}

type plan struct {
	updates []plannedUpdate
	creates []entity.Company
}

// Run はフローを実行し、集計結果を返します。
// エラーは返さず、取得段階の失敗や panic は Stats.Success=false として報告されます。
func Run[R any](ctx context.Context, p *Pipeline, flow Flow[R], opts Options) (stats *Stats) {
	stats = &Stats{Flow: flow.Name(), DryRun: opts.DryRun, StartedAt: p.now()}
	log := slog.With("flow", flow.Name())

	defer func() {
		if r := recover(); r != nil {
			stats.Success = false
			stats.recordError(fmt.Errorf("panic: %v", r))
			log.Error("sync aborted", "panic", r)
		}
		stats.FinishedAt = p.now()
		log.Info("sync finished", "stats", stats)
	}()

	if opts.DryRun {
		log.Info("dry run: no changes will be written")
	}

	src, err := flow.Fetch(ctx, opts)
	if err != nil {
		log.Error("failed to fetch source data", "error", err)
		stats.recordError(err)
		return stats
	}

	rows := src.Rows
	stats.Found = len(rows)
	stats.Existing = len(src.Existing)
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
		log.Info("row limit applied", "limit", opts.Limit)
	}

	matcher := reconcile.NewMatcher(
		reconcile.BuildIndex(src.Existing, flow.PrimaryKey),
		reconcile.BuildIndex(src.Existing, reconcile.ByName),
	)
	log.Info("source loaded", "rows", len(rows), "existing", len(src.Existing), "indexed", matcher.Len())

	pl := resolveRows(ctx, log, flow, rows, matcher, stats)
	p.apply(ctx, log, flow.MergePolicy(), pl, opts, stats)

	stats.Success = true
	return stats
}

// resolveRows は各行を照合し、更新・作成の計画を組み立てます。
// 同一キーの新規行が複数ある場合は後の行で置き換えます。
func resolveRows[R any](ctx context.Context, log *slog.Logger, flow Flow[R], rows []R, matcher *reconcile.Matcher, stats *Stats) plan {
	var pl plan
	createAt := make(map[string]int)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			stats.stop("context cancelled")
			stats.recordError(err)
			log.Warn("context cancelled, stopping", "error", err)
			break
		}

		stats.Processed++
		primary, name := flow.Keys(row)
		match, _ := matcher.Match(primary, name)

		res, err := flow.Resolve(ctx, row, match)
		stats.APICalls += res.APICalls
		if errors.Is(err, ErrStop) {
			stats.stop(stopReason(err))
			log.Warn("stopping early", "reason", err, "processed", stats.Processed)
			break
		}
		if err != nil {
			stats.Failed++
			stats.recordError(err)
			if stats.Failed <= maxLoggedFailures {
				log.Error("failed to resolve row", "key", primary, "name", name, "error", err)
			}
			continue
		}
		if res.Skip {
			stats.Skipped++
			log.Debug("row skipped", "key", primary, "name", name, "reason", res.Reason)
			continue
		}

		if match != nil {
			pl.updates = append(pl.updates, plannedUpdate{target: match, patch: res.Patch})
			continue
		}

		c := res.Patch.NewCompany()
		key := primary
		if key == "" {
			key = name
		}
		if i, ok := createAt[key]; ok && key != "" {
			log.Debug("duplicate new row replaces earlier one", "key", key)
			pl.creates[i] = c
			continue
		}
		createAt[key] = len(pl.creates)
		pl.creates = append(pl.creates, c)
	}
	return pl
}

// apply は計画された更新を1件ずつ、新規作成を1回のバッチで書き込みます。
// 個別の更新失敗は実行を止めません。バッチ作成が失敗した場合は全件を失敗として数えます。
func (p *Pipeline) apply(ctx context.Context, log *slog.Logger, policy reconcile.MergePolicy, pl plan, opts Options, stats *Stats) {
	now := p.now().UTC()

	for _, u := range pl.updates {
		patch := u.patch
		if patch.ExtraData != nil {
			patch.ExtraData = policy.Merge(u.target.ExtraData, patch.ExtraData)
		}
		patch.LastSyncedAt = &now

		if opts.DryRun {
			stats.Updated++
			log.Info("would update", "id", u.target.ID, "name", u.target.DisplayName())
			continue
		}

		if err := p.store.Update(ctx, u.target.ID, patch); err != nil {
			stats.Failed++
			stats.recordError(err)
			if stats.Failed <= maxLoggedFailures {
				log.Error("failed to update company", "id", u.target.ID, "name", u.target.DisplayName(), "error", err)
			}
			continue
		}
		stats.Updated++
		if stats.Updated%progressEvery == 0 {
			log.Info("progress", "updated", stats.Updated, "planned", len(pl.updates))
		}
	}

	if len(pl.creates) == 0 {
		return
	}
	for i := range pl.creates {
		pl.creates[i].LastSyncedAt = &now
	}
	if opts.DryRun {
		stats.Created += len(pl.creates)
		log.Info("would create companies", "count", len(pl.creates))
		return
	}
	if err := p.store.CreateBatch(ctx, pl.creates); err != nil {
		stats.Failed += len(pl.creates)
		stats.recordError(err)
		log.Error("failed to create companies", "count", len(pl.creates), "error", err)
		return
	}
	stats.Created += len(pl.creates)
	log.Info("created companies", "count", len(pl.creates))
}

// stopReason は ErrStop の原因を集計レポート向けの短い文言にします。
func stopReason(err error) string {
	if errors.Is(err, ErrRateLimited) {
		return "rate limit reached"
	}
	return err.Error()
}
