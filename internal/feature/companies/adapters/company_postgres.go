package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/usecase"
)

// createBatchSize は1回の INSERT 文に含める行数です。
const createBatchSize = 500

type companyPostgres struct {
	db *gorm.DB
}

var (
	_ usecase.CompanyWriter    = (*companyPostgres)(nil)
	_ usecase.SymbolRepository = (*companyPostgres)(nil)
	_ usecase.CompanyPager     = (*companyPostgres)(nil)
	_ usecase.TickerRepository = (*companyPostgres)(nil)
	_ usecase.StatusRepository = (*companyPostgres)(nil)
)

func NewCompanyRepository(db *gorm.DB) *companyPostgres {
	return &companyPostgres{db: db}
}

// Migrate は companies テーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CompanyModel{})
}

// describeError は Postgres のエラーであれば SQLSTATE と制約名を付けてエラーを包みます。
func describeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.ConstraintName != "" {
			return fmt.Errorf("%s: %s (SQLSTATE %s, constraint %s): %w", op, pgErr.Message, pgErr.Code, pgErr.ConstraintName, err)
		}
		return fmt.Errorf("%s: %s (SQLSTATE %s): %w", op, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *companyPostgres) list(ctx context.Context, op string, offset, size int, scope func(*gorm.DB) *gorm.DB) ([]entity.Company, error) {
	var rows []CompanyModel
	q := r.db.WithContext(ctx).Model(&CompanyModel{})
	if scope != nil {
		q = scope(q)
	}
	if err := q.Order("id").Offset(offset).Limit(size).Find(&rows).Error; err != nil {
		return nil, describeError(op, err)
	}
	out := make([]entity.Company, 0, len(rows))
	for _, m := range rows {
		e, err := toEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *companyPostgres) ListPage(ctx context.Context, offset, size int) ([]entity.Company, error) {
	return r.list(ctx, "list companies", offset, size, nil)
}

func (r *companyPostgres) ListMissingSymbol(ctx context.Context, offset, size int) ([]entity.Company, error) {
	return r.list(ctx, "list companies without symbol", offset, size, func(q *gorm.DB) *gorm.DB {
		return q.Where("symbol IS NULL")
	})
}

func (r *companyPostgres) ListWithExtraKey(ctx context.Context, key string, offset, size int) ([]entity.Company, error) {
	return r.list(ctx, "list companies with "+key, offset, size, func(q *gorm.DB) *gorm.DB {
		return q.Where(datatypes.JSONQuery("extra_data").HasKey(key))
	})
}

func (r *companyPostgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&CompanyModel{}).Count(&n).Error; err != nil {
		return 0, describeError("count companies", err)
	}
	return n, nil
}

// Update は ID で指定した1行にパッチを適用します。該当行がなければ usecase.ErrNotFound を返します。
func (r *companyPostgres) Update(ctx context.Context, id uuid.UUID, patch entity.Patch) error {
	cols, err := patchColumns(patch)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&CompanyModel{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return describeError(fmt.Sprintf("update company %s", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update company %s: %w", id, usecase.ErrNotFound)
	}
	return nil
}

// CreateBatch は全件を1つのトランザクションで挿入します。1件でも失敗した場合は何も挿入されません。
func (r *companyPostgres) CreateBatch(ctx context.Context, companies []entity.Company) error {
	if len(companies) == 0 {
		return nil
	}
	ms := make([]CompanyModel, 0, len(companies))
	for _, e := range companies {
		m, err := toModel(e)
		if err != nil {
			return err
		}
		ms = append(ms, m)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&ms, createBatchSize).Error
	})
	if err != nil {
		return describeError(fmt.Sprintf("create %d companies", len(ms)), err)
	}
	return nil
}
