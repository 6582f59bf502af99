package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_sync/internal/feature/companies/domain/entity"
)

// TestNewQuoteCache_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewQuoteCache_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"default values when zero/empty", 0, "", 15 * time.Minute, "quotes"},
		{"negative ttl uses default", -time.Minute, "", 15 * time.Minute, "quotes"},
		{"custom values", time.Minute, "q", time.Minute, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewQuoteCache(nil, tt.ttl, tt.namespace)
			assert.Equal(t, tt.expectedTTL, c.ttl)
			assert.Equal(t, tt.expectedNamespace, c.namespace)
		})
	}
}

func TestQuoteCache_NilClientIsNoop(t *testing.T) {
	t.Parallel()

	c := NewQuoteCache(nil, 0, "")
	c.Set(context.Background(), entity.Quote{Symbol: "IBM"})

	_, ok := c.Get(context.Background(), "IBM")
	assert.False(t, ok)
}

func TestQuoteCache_GetHit(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	c := NewQuoteCache(db, 0, "")

	want := entity.Quote{Symbol: "IBM", Price: decimal.RequireFromString("181.75"), Volume: 42}
	b, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet("quotes:IBM").SetVal(string(b))

	got, ok := c.Get(context.Background(), "ibm")

	require.True(t, ok)
	assert.Equal(t, "IBM", got.Symbol)
	assert.True(t, got.Price.Equal(want.Price))
	assert.Equal(t, int64(42), got.Volume)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteCache_GetMissAndErrors(t *testing.T) {
	t.Parallel()

	t.Run("miss", func(t *testing.T) {
		t.Parallel()
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("quotes:IBM").RedisNil()

		_, ok := NewQuoteCache(db, 0, "").Get(context.Background(), "IBM")

		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error", func(t *testing.T) {
		t.Parallel()
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("quotes:IBM").SetErr(errors.New("connection refused"))

		_, ok := NewQuoteCache(db, 0, "").Get(context.Background(), "IBM")

		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupted entry is deleted", func(t *testing.T) {
		t.Parallel()
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("quotes:IBM").SetVal("{not json")
		mock.ExpectDel("quotes:IBM").SetVal(1)

		_, ok := NewQuoteCache(db, 0, "").Get(context.Background(), "IBM")

		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuoteCache_Set(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	c := NewQuoteCache(db, time.Minute, "")

	q := entity.Quote{Symbol: "BRK B", Price: decimal.NewFromInt(1)}
	b, err := json.Marshal(q)
	require.NoError(t, err)
	mock.ExpectSet("quotes:BRK_B", b, time.Minute).SetVal("OK")

	c.Set(context.Background(), q)

	assert.NoError(t, mock.ExpectationsWereMet())
}
