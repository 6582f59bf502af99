package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"company_sync/internal/feature/companies/transport/http/dto"
	"company_sync/internal/feature/companies/usecase"
)

// StatusUsecase は同期状況に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type StatusUsecase interface {
	SyncStatus(ctx context.Context) (*usecase.SyncStatus, error)
	Fields(ctx context.Context) ([]string, error)
}

// StatusHandler は同期状況に関するHTTPリクエストを処理します。
type StatusHandler struct {
	uc StatusUsecase
}

// NewStatusHandler は新しい StatusHandler を作成します。
func NewStatusHandler(uc StatusUsecase) *StatusHandler {
	return &StatusHandler{uc: uc}
}

// SyncStatus は最新の価格更新時刻と企業数を返すAPIです。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *StatusHandler) SyncStatus(c *gin.Context) {
	st, err := h.uc.SyncStatus(c.Request.Context())
	if err != nil {
		slog.Error("failed to load sync status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sync status"})
		return
	}
	c.JSON(http.StatusOK, dto.SyncStatusResponse{
		LastPriceUpdate:  st.LastPriceUpdate,
		TotalCompanies:   st.TotalCompanies,
		StocksWithPrices: st.StocksWithPrices,
	})
}

// Fields は extra_data に現れるフィールド名の一覧を返す管理者用APIです。
func (h *StatusHandler) Fields(c *gin.Context) {
	fields, err := h.uc.Fields(c.Request.Context())
	if err != nil {
		slog.Error("failed to list fields", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list fields"})
		return
	}
	if fields == nil {
		fields = []string{}
	}
	c.JSON(http.StatusOK, dto.FieldsResponse{Total: len(fields), Fields: fields})
}
