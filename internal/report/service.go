package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pos/internal/repo"
)

// Querier defines the database access required for report queries.
type Querier interface {
	SalesDailyRange(ctx context.Context, from, to time.Time) ([]repo.DailySales, error)
	TopProducts(ctx context.Context, limit, offset int32) ([]repo.TopProduct, error)
	SalesByMethod(ctx context.Context, from, to time.Time) ([]repo.MethodBreakdown, error)
}

// Service provides cached access to sales aggregates. Reports lag
// reality by at most TTL, which is acceptable for dashboards.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesDaily returns per-day totals between from and to, inclusive of
// from and exclusive of to.
func (s *Service) SalesDaily(ctx context.Context, from, to time.Time) ([]repo.DailySales, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	key := cacheKey("rpt", "daily", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []repo.DailySales
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesDailyRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns the best-seller ranking.
func (s *Service) TopProducts(ctx context.Context, limit, offset int32) ([]repo.TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("rpt", "top", limit, offset)
	var cached []repo.TopProduct
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// SalesByMethod returns the revenue split across payment methods.
func (s *Service) SalesByMethod(ctx context.Context, from, to time.Time) ([]repo.MethodBreakdown, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	key := cacheKey("rpt", "methods", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []repo.MethodBreakdown
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesByMethod(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
