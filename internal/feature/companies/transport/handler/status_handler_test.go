package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"company_sync/internal/feature/companies/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockStatusUsecase はStatusUsecaseインターフェースのモック実装です。
type mockStatusUsecase struct {
	SyncStatusFunc func(ctx context.Context) (*usecase.SyncStatus, error)
	FieldsFunc     func(ctx context.Context) ([]string, error)
}

func (m *mockStatusUsecase) SyncStatus(ctx context.Context) (*usecase.SyncStatus, error) {
	if m.SyncStatusFunc != nil {
		return m.SyncStatusFunc(ctx)
	}
	return &usecase.SyncStatus{}, nil
}

func (m *mockStatusUsecase) Fields(ctx context.Context) ([]string, error) {
	if m.FieldsFunc != nil {
		return m.FieldsFunc(ctx)
	}
	return nil, nil
}

func setupRouter(uc StatusUsecase) *gin.Engine {
	h := NewStatusHandler(uc)
	r := gin.New()
	r.GET("/sync-status", h.SyncStatus)
	r.GET("/admin/fields", h.Fields)
	return r
}

// TestStatusHandler_SyncStatus はSyncStatusハンドラーの各種シナリオを検証します。
func TestStatusHandler_SyncStatus(t *testing.T) {
	t.Parallel()

	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		syncStatusFunc func(ctx context.Context) (*usecase.SyncStatus, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: returns status",
			syncStatusFunc: func(ctx context.Context) (*usecase.SyncStatus, error) {
				return &usecase.SyncStatus{LastPriceUpdate: &last, TotalCompanies: 10, StocksWithPrices: 4}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"lastPriceUpdate":"2024-03-01T12:00:00Z","totalCompanies":10,"stocksWithPrices":4}`,
		},
		{
			name: "success: no price update yet",
			syncStatusFunc: func(ctx context.Context) (*usecase.SyncStatus, error) {
				return &usecase.SyncStatus{TotalCompanies: 3}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"lastPriceUpdate":null,"totalCompanies":3,"stocksWithPrices":0}`,
		},
		{
			name: "failure: usecase returns error",
			syncStatusFunc: func(ctx context.Context) (*usecase.SyncStatus, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"failed to load sync status"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/sync-status", nil)
			setupRouter(&mockStatusUsecase{SyncStatusFunc: tt.syncStatusFunc}).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

// TestStatusHandler_Fields はFieldsハンドラーの各種シナリオを検証します。
func TestStatusHandler_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		fieldsFunc     func(ctx context.Context) ([]string, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: returns fields",
			fieldsFunc: func(ctx context.Context) ([]string, error) {
				return []string{"Current_Price", "Sector"}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"total":2,"fields":["Current_Price","Sector"]}`,
		},
		{
			name: "success: empty store",
			fieldsFunc: func(ctx context.Context) ([]string, error) {
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"total":0,"fields":[]}`,
		},
		{
			name: "failure: usecase returns error",
			fieldsFunc: func(ctx context.Context) ([]string, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"failed to list fields"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/fields", nil)
			setupRouter(&mockStatusUsecase{FieldsFunc: tt.fieldsFunc}).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
