package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"company_sync/internal/feature/companies/domain/entity"
)

var ErrDB = errors.New("database error")

// memStore is an in-memory implementation of every repository interface consumed by the flows.
type memStore struct {
	mu        sync.Mutex
	companies []entity.Company

	UpdateFunc      func(ctx context.Context, id uuid.UUID, patch entity.Patch) error
	CreateBatchFunc func(ctx context.Context, companies []entity.Company) error
	ListPageFunc    func(ctx context.Context, offset, size int) ([]entity.Company, error)

	UpdateCalls      int
	CreateBatchCalls int
	PageCalls        int
}

func newMemStore(companies ...entity.Company) *memStore {
	s := &memStore{}
	for _, c := range companies {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		s.companies = append(s.companies, c)
	}
	return s
}

func (s *memStore) page(offset, size int, keep func(entity.Company) bool) []entity.Company {
	s.PageCalls++
	var filtered []entity.Company
	for _, c := range s.companies {
		if keep(c) {
			filtered = append(filtered, c)
		}
	}
	if offset >= len(filtered) {
		return nil
	}
	end := offset + size
	if end > len(filtered) {
		end = len(filtered)
	}
	out := make([]entity.Company, end-offset)
	copy(out, filtered[offset:end])
	return out
}

func (s *memStore) ListPage(ctx context.Context, offset, size int) ([]entity.Company, error) {
	if s.ListPageFunc != nil {
		return s.ListPageFunc(ctx, offset, size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page(offset, size, func(entity.Company) bool { return true }), nil
}

func (s *memStore) ListMissingSymbol(_ context.Context, offset, size int) ([]entity.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page(offset, size, func(c entity.Company) bool { return c.Symbol == nil }), nil
}

func (s *memStore) ListWithExtraKey(_ context.Context, key string, offset, size int) ([]entity.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page(offset, size, func(c entity.Company) bool { return c.ExtraData.Has(key) }), nil
}

func (s *memStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.companies)), nil
}

func (s *memStore) Update(ctx context.Context, id uuid.UUID, patch entity.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateCalls++
	if s.UpdateFunc != nil {
		if err := s.UpdateFunc(ctx, id, patch); err != nil {
			return err
		}
	}
	for i := range s.companies {
		if s.companies[i].ID == id {
			s.companies[i] = s.companies[i].Apply(patch)
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memStore) CreateBatch(ctx context.Context, companies []entity.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateBatchCalls++
	if s.CreateBatchFunc != nil {
		if err := s.CreateBatchFunc(ctx, companies); err != nil {
			return err
		}
	}
	for _, c := range companies {
		c.ID = uuid.New()
		s.companies = append(s.companies, c)
	}
	return nil
}

func (s *memStore) find(satellog string) (entity.Company, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Satellog == satellog {
			return c, true
		}
	}
	return entity.Company{}, false
}

// mockSheetSource is a mock implementation of the SheetSource interface.
type mockSheetSource struct {
	FetchFunc  func(ctx context.Context) (entity.Sheet, error)
	FetchCalls int
}

func (m *mockSheetSource) Fetch(ctx context.Context) (entity.Sheet, error) {
	m.FetchCalls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return entity.Sheet{}, errors.New("FetchFunc is not implemented")
}

// mockMarketRepository is a mock implementation of the MarketRepository interface.
type mockMarketRepository struct {
	GetQuoteFunc  func(ctx context.Context, symbol string) (*entity.Quote, error)
	GetQuoteCalls int
}

func (m *mockMarketRepository) GetQuote(ctx context.Context, symbol string) (*entity.Quote, error) {
	m.GetQuoteCalls++
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, symbol)
	}
	return nil, errors.New("GetQuoteFunc is not implemented")
}

// mockQuoteCache is a map backed QuoteCache.
type mockQuoteCache struct {
	quotes   map[string]entity.Quote
	SetCalls int
}

func (m *mockQuoteCache) Get(_ context.Context, symbol string) (*entity.Quote, bool) {
	q, ok := m.quotes[symbol]
	if !ok {
		return nil, false
	}
	return &q, true
}

func (m *mockQuoteCache) Set(_ context.Context, q entity.Quote) {
	m.SetCalls++
	if m.quotes == nil {
		m.quotes = map[string]entity.Quote{}
	}
	m.quotes[q.Symbol] = q
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	WaitIfNeededCalls int
}

func (m *mockRateLimiter) WaitIfNeeded() {
	m.WaitIfNeededCalls++
	// For testing purposes, return immediately without waiting
}
