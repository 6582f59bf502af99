// Package cli はバッチ同期ドライバーのコマンドラインを提供します。
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"company_sync/internal/app/di"
	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/reconcile"
	"company_sync/internal/feature/companies/usecase"
	"company_sync/internal/platform/config"
	infradb "company_sync/internal/platform/db"
	jwtmw "company_sync/internal/platform/jwt"
	infraredis "company_sync/internal/platform/redis"
)

// ErrSyncFailed は同期が Success=false で終了したことを表します。終了コード 1 に対応します。
var ErrSyncFailed = errors.New("sync failed")

// App はコマンドが使う外部リソースの生成関数です。テストでは差し替えます。
type App struct {
	LoadConfig func() config.Config
	OpenDB     func(cfg config.Config) (*gorm.DB, error)
	OpenRedis  func(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error)
}

// NewApp は本番用の App を返します。
func NewApp() *App {
	return &App{
		LoadConfig: config.Load,
		OpenDB:     infradb.OpenDB,
		OpenRedis:  infraredis.NewRedisClient,
	}
}

type rootOptions struct {
	dryRun  bool
	limit   int
	verbose bool
}

// NewRootCommand はサブコマンドを登録したルートコマンドを返します。
func (a *App) NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "reconcile",
		Short:         "Reconcile company records from the spreadsheet and the market data API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.limit < 0 {
				return fmt.Errorf("--limit must be >= 0, got %d", opts.limit)
			}
			if opts.verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "compute and report changes without writing")
	root.PersistentFlags().IntVar(&opts.limit, "limit", 0, "process at most N rows (0 = no limit; prices defaults to 100)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.newSymbolsCommand(opts),
		a.newSheetCommand(opts),
		a.newPricesCommand(opts),
		a.newAdminTokenCommand(),
	)
	return root
}

func (o *rootOptions) usecaseOptions() usecase.Options {
	return usecase.Options{DryRun: o.dryRun, Limit: o.limit}
}

// session は1回のコマンド実行で共有するストアと設定です。
type session struct {
	cfg    config.Config
	db     *gorm.DB
	store  di.CompanyStore
	fields reconcile.FieldSets
}

func (s *session) close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

// open は設定を検証し、フィールドセットを読み込んでストアに接続します。
func (a *App) open(sections ...config.Section) (*session, error) {
	cfg := a.LoadConfig()
	if err := cfg.Require(append([]config.Section{config.SectionDB}, sections...)...); err != nil {
		return nil, err
	}

	fields, err := reconcile.LoadFieldSets(cfg.FieldSetsPath)
	if err != nil {
		return nil, err
	}

	db, err := a.OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	return &session{cfg: cfg, db: db, store: di.NewCompanyStore(db), fields: fields}, nil
}

// report は集計結果を標準出力に書き出し、失敗していれば ErrSyncFailed を返します。
func report(cmd *cobra.Command, stats *usecase.Stats) error {
	if err := stats.WriteSummary(cmd.OutOrStdout()); err != nil {
		return err
	}
	if !stats.Success {
		if stats.LastError != "" {
			return fmt.Errorf("%w: %s", ErrSyncFailed, stats.LastError)
		}
		return ErrSyncFailed
	}
	return nil
}

func (a *App) newSymbolsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "Backfill missing ticker symbols from extra_data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			flow := di.NewSymbolBackfill(s.store, s.fields)
			stats := usecase.Run[entity.Company](cmd.Context(), usecase.NewPipeline(s.store), flow, opts.usecaseOptions())
			return report(cmd, stats)
		},
	}
}

func (a *App) newSheetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sheet",
		Short: "Sync companies from the shared spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(config.SectionSheet)
			if err != nil {
				return err
			}
			defer s.close()

			flow := di.NewSpreadsheetSync(s.cfg.Sheet, s.store, s.fields)
			stats := usecase.Run[usecase.SheetRow](cmd.Context(), usecase.NewPipeline(s.store), flow, opts.usecaseOptions())
			return report(cmd, stats)
		},
	}
}

func (a *App) newPricesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "Update current prices from the market data API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(config.SectionMarket)
			if err != nil {
				return err
			}
			defer s.close()

			// Redis は任意。接続できなければキャッシュなしで続行する
			rdb, err := a.OpenRedis(cmd.Context(), s.cfg.Redis)
			if err != nil {
				slog.Warn("Redis unavailable, running without quote cache", "error", err)
				rdb = nil
			}
			if rdb != nil {
				defer func() {
					if err := rdb.Close(); err != nil {
						slog.Error("failed to close Redis client", "error", err)
					}
				}()
			}

			flow := di.NewPriceUpdate(s.cfg.Market, s.store, rdb, s.fields)
			stats := usecase.Run[entity.Company](cmd.Context(), usecase.NewPipeline(s.store), flow, opts.usecaseOptions())
			return report(cmd, stats)
		},
	}
}

func (a *App) newAdminTokenCommand() *cobra.Command {
	var (
		ttl     time.Duration
		subject string
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a service_role JWT for the admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.LoadConfig()
			if err := cfg.Require(config.SectionJWT); err != nil {
				return err
			}
			token, err := jwtmw.NewGenerator(cfg.JWT.Secret, ttl).GenerateToken(subject, jwtmw.RoleServiceRole)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	return cmd
}
