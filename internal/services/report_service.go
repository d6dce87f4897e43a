package services

import (
	"context"
	"fmt"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/core"
	"spendtrack/internal/metrics"
	"spendtrack/internal/storage"
)

const (
	reportCacheSize = 256
	reportCacheTTL  = 5 * time.Minute
)

// ReportService computes grouped spending aggregates scoped to one owner.
// Results are cached per owner; expense mutations call InvalidateOwner.
type ReportService struct {
	store         storage.Store
	monthlyCache  *cache.LRUCache[[]core.MonthlySpending]
	categoryCache *cache.LRUCache[[]core.CategorySpending]
}

var _ ReportInvalidator = (*ReportService)(nil)

func NewReportService(store storage.Store) *ReportService {
	return &ReportService{
		store:         store,
		monthlyCache:  cache.NewLRUCache[[]core.MonthlySpending](reportCacheSize, reportCacheTTL),
		categoryCache: cache.NewLRUCache[[]core.CategorySpending](reportCacheSize, reportCacheTTL),
	}
}

// Caches returns the internal caches for registration with a cache.Manager.
func (s *ReportService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.monthlyCache, s.categoryCache}
}

// SpendingByMonth sums the owner's expenses per calendar year-month over the
// inclusive [start, end] range, ascending by "YYYY-MM" key.
func (s *ReportService) SpendingByMonth(ctx context.Context, ownerID string, start, end time.Time) ([]core.MonthlySpending, error) {
	key := fmt.Sprintf("%s|%s|%s", ownerID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if rows, ok := s.monthlyCache.Get(key); ok {
		metrics.ReportCacheHits.WithLabelValues("hit").Inc()
		return rows, nil
	}
	metrics.ReportCacheHits.WithLabelValues("miss").Inc()

	rows, err := s.store.SpendingByMonth(ctx, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("spending by month: %w", err)
	}

	s.monthlyCache.Set(key, rows)
	return rows, nil
}

// SpendingByCategory sums all of the owner's expenses per category,
// descending by total. No date filter by design.
func (s *ReportService) SpendingByCategory(ctx context.Context, ownerID string) ([]core.CategorySpending, error) {
	key := ownerID + "|categories"
	if rows, ok := s.categoryCache.Get(key); ok {
		metrics.ReportCacheHits.WithLabelValues("hit").Inc()
		return rows, nil
	}
	metrics.ReportCacheHits.WithLabelValues("miss").Inc()

	rows, err := s.store.SpendingByCategory(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}

	s.categoryCache.Set(key, rows)
	return rows, nil
}

// InvalidateOwner drops every cached report for the owner.
func (s *ReportService) InvalidateOwner(ownerID string) {
	s.monthlyCache.DeletePrefix(ownerID + "|")
	s.categoryCache.DeletePrefix(ownerID + "|")
}
