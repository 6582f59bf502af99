package usecase

import (
	"context"
	"fmt"

	"company_sync/internal/feature/companies/domain/entity"
)

// DefaultPageSize はストアから1回に取得する行数です。ストアは1レスポンスで全件を返すとは限りません。
const DefaultPageSize = 1000

// PageFunc は offset から最大 size 件のレコードを決定的な順序で返します。
type PageFunc func(ctx context.Context, offset, size int) ([]entity.Company, error)

// FetchAll は固定サイズのページを順に取得し、要求件数に満たないページが返った時点で終了します。
// limit が正の場合は最大 limit 件で打ち切ります。
func FetchAll(ctx context.Context, pageSize, limit int, page PageFunc) ([]entity.Company, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []entity.Company
	offset := 0
	for {
		size := pageSize
		if limit > 0 {
			remaining := limit - len(all)
			if remaining <= 0 {
				break
			}
			if remaining < size {
				size = remaining
			}
		}

		batch, err := page(ctx, offset, size)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		all = append(all, batch...)

		if len(batch) < size {
			break
		}
		offset += len(batch)
	}
	return all, nil
}
