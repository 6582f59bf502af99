package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/domain/extradata"
	"company_sync/internal/feature/companies/usecase"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db), "failed to migrate table")
	return db
}

func strPtr(s string) *string { return &s }

func bag(kv ...string) *extradata.Bag {
	b := extradata.New()
	for i := 0; i+1 < len(kv); i += 2 {
		b.Set(kv[i], extradata.String(kv[i+1]))
	}
	return b
}

// seedCompanies inserts companies through the repository and returns them sorted by ID.
func seedCompanies(t *testing.T, repo *companyPostgres, companies ...entity.Company) []entity.Company {
	t.Helper()

	require.NoError(t, repo.CreateBatch(context.Background(), companies), "failed to seed companies")
	all, err := repo.ListPage(context.Background(), 0, 1000)
	require.NoError(t, err)
	return all
}

func TestNewCompanyRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewCompanyRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestCompanyPostgres_CreateAndList(t *testing.T) {
	t.Parallel()

	repo := NewCompanyRepository(setupTestDB(t))
	price := decimal.RequireFromString("12.5")
	synced := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	extra := extradata.New()
	extra.Set("Ticker", extradata.String("ACME"))
	extra.Set("Employees", extradata.Number(120))
	extra.Set("Listed", extradata.Bool(true))
	extra.Set("Meta", extradata.RawJSON([]byte(`{"a": [1, 2]}`)))

	all := seedCompanies(t, repo,
		entity.Company{Name: "Acme", Satellog: "S1", Symbol: strPtr("ACME"), CurrentPrice: &price, ExtraData: extra, LastSyncedAt: &synced},
		entity.Company{Name: "Beta", Satellog: "S2", WKN: strPtr("840400")},
	)
	require.Len(t, all, 2)

	ids := []string{all[0].ID.String(), all[1].ID.String()}
	assert.True(t, sort.StringsAreSorted(ids), "pages are ordered by id")

	byName := map[string]entity.Company{}
	for _, c := range all {
		assert.NotEqual(t, uuid.Nil, c.ID, "id is assigned on create")
		byName[c.Name] = c
	}

	acme := byName["Acme"]
	require.NotNil(t, acme.CurrentPrice)
	assert.True(t, acme.CurrentPrice.Equal(price))
	require.NotNil(t, acme.LastSyncedAt)
	assert.True(t, acme.LastSyncedAt.Equal(synced))
	assert.Equal(t, []string{"Ticker", "Employees", "Listed", "Meta"}, acme.ExtraData.Keys(), "key order survives a round trip")
	meta, _ := acme.ExtraData.Get("Meta")
	assert.Equal(t, extradata.KindJSON, meta.Kind())

	beta := byName["Beta"]
	assert.Nil(t, beta.CurrentPrice)
	assert.Nil(t, beta.Symbol)
	assert.Equal(t, 0, beta.ExtraData.Len())
}

func TestCompanyPostgres_Pagination(t *testing.T) {
	t.Parallel()

	repo := NewCompanyRepository(setupTestDB(t))
	companies := make([]entity.Company, 25)
	for i := range companies {
		companies[i] = entity.Company{Name: fmt.Sprintf("c%02d", i)}
	}
	seedCompanies(t, repo, companies...)

	got, err := usecase.FetchAll(context.Background(), 10, 0, repo.ListPage)
	require.NoError(t, err)
	require.Len(t, got, 25)

	seen := map[uuid.UUID]bool{}
	for _, c := range got {
		assert.False(t, seen[c.ID], "duplicate row %s", c.ID)
		seen[c.ID] = true
	}
}

func TestCompanyPostgres_Filters(t *testing.T) {
	t.Parallel()

	repo := NewCompanyRepository(setupTestDB(t))
	seedCompanies(t, repo,
		entity.Company{Name: "NoSymbol", ExtraData: bag("Ticker", "aapl")},
		entity.Company{Name: "HasSymbol", Symbol: strPtr("MSFT"), ExtraData: bag("Sector", "Tech")},
		entity.Company{Name: "Other", ExtraData: bag("Sector", "Energy")},
	)
	ctx := context.Background()

	missing, err := repo.ListMissingSymbol(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	withTicker, err := repo.ListWithExtraKey(ctx, "Ticker", 0, 100)
	require.NoError(t, err)
	require.Len(t, withTicker, 1)
	assert.Equal(t, "NoSymbol", withTicker[0].Name)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestCompanyPostgres_Update(t *testing.T) {
	t.Parallel()

	repo := NewCompanyRepository(setupTestDB(t))
	all := seedCompanies(t, repo, entity.Company{Name: "Acme", Satellog: "S1", ExtraData: bag("Sector", "Tech")})
	id := all[0].ID
	ctx := context.Background()

	price := decimal.RequireFromString("99.99")
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	extra := bag("Sector", "Tech", "Current_Price", "99.99")
	err := repo.Update(ctx, id, entity.Patch{Symbol: strPtr("ACME"), CurrentPrice: &price, ExtraData: extra, LastSyncedAt: &now})
	require.NoError(t, err)

	got, err := repo.ListPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Name, "fields absent from the patch are untouched")
	assert.Equal(t, "S1", got[0].Satellog)
	require.NotNil(t, got[0].Symbol)
	assert.Equal(t, "ACME", *got[0].Symbol)
	assert.True(t, got[0].CurrentPrice.Equal(price))
	assert.True(t, got[0].ExtraData.Equal(extra))

	err = repo.Update(ctx, uuid.New(), entity.Patch{Name: strPtr("Ghost")})
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	assert.NoError(t, repo.Update(ctx, id, entity.Patch{}), "empty patch is a no-op")
}

func TestCompanyPostgres_CreateBatchIsAtomic(t *testing.T) {
	t.Parallel()

	repo := NewCompanyRepository(setupTestDB(t))
	dup := uuid.New()

	err := repo.CreateBatch(context.Background(), []entity.Company{
		{ID: dup, Name: "First"},
		{ID: dup, Name: "Second"},
	})
	require.Error(t, err)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "a failed batch inserts nothing")
}

func TestDescribeError(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value", ConstraintName: "companies_pkey"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"postgres error with constraint", pgErr, "insert: duplicate key value (SQLSTATE 23505, constraint companies_pkey)"},
		{"postgres error without constraint", &pgconn.PgError{Code: "57014", Message: "canceling statement"}, "insert: canceling statement (SQLSTATE 57014)"},
		{"other error", errors.New("boom"), "insert: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := describeError("insert", tt.err)
			assert.Contains(t, got.Error(), tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
