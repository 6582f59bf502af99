package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"company_sync/internal/feature/companies/domain/entity"
	"company_sync/internal/feature/companies/usecase"
)

// DownloadTimeout はスプレッドシートのダウンロード全体のタイムアウトです。
const DownloadTimeout = 60 * time.Second

// maxDownloadBytes を超えるレスポンスは読み込みません。
const maxDownloadBytes = 64 << 20

// Fetcher は URL からスプレッドシートをダウンロードして解析する SheetSource 実装です。
type Fetcher struct {
	url    string
	client *http.Client
}

var _ usecase.SheetSource = (*Fetcher)(nil)

// NewFetcher は新しい Fetcher を作成します。
func NewFetcher(url string, client *http.Client) *Fetcher {
	return &Fetcher{url: url, client: client}
}

// Fetch はスプレッドシートをダウンロードし、表として返します。
func (f *Fetcher) Fetch(ctx context.Context) (entity.Sheet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return entity.Sheet{}, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		return entity.Sheet{}, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		return entity.Sheet{}, fmt.Errorf("spreadsheet download failed: http %d", res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxDownloadBytes+1))
	if err != nil {
		return entity.Sheet{}, fmt.Errorf("read spreadsheet body: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return entity.Sheet{}, fmt.Errorf("spreadsheet exceeds %d bytes", maxDownloadBytes)
	}
	slog.Info("spreadsheet downloaded", "bytes", len(data))

	return Parse(data)
}
