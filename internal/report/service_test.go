package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pos/internal/repo"
	"github.com/noah-isme/backend-pos/internal/report"
)

type stubQueries struct {
	dailyCalls int
	topCalls   int
}

func (s *stubQueries) SalesDailyRange(_ context.Context, from, _ time.Time) ([]repo.DailySales, error) {
	s.dailyCalls++
	return []repo.DailySales{{Day: from, Sales: 2, Quantity: 7, Revenue: 4500, Profit: 4365}}, nil
}

func (s *stubQueries) TopProducts(_ context.Context, _, _ int32) ([]repo.TopProduct, error) {
	s.topCalls++
	return []repo.TopProduct{{ProductID: 1, Name: "Hammer", Quantity: 12, Revenue: 12000}}, nil
}

func (s *stubQueries) SalesByMethod(_ context.Context, _, _ time.Time) ([]repo.MethodBreakdown, error) {
	return []repo.MethodBreakdown{{MethodID: 1, Name: "Cash", Sales: 2, Revenue: 4500}}, nil
}

func TestSalesDailyCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	queries := &stubQueries{}
	svc := &report.Service{Q: queries, R: rdb, TTL: time.Minute, DefaultRange: 30}

	from := time.Now().Add(-24 * time.Hour).Truncate(24 * time.Hour)
	to := time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if _, err := svc.SalesDaily(context.Background(), from, to); err != nil {
		t.Fatalf("first call: %v", err)
	}
	rows, err := svc.SalesDaily(context.Background(), from, to)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.dailyCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.dailyCalls)
	}
	if len(rows) != 1 || rows[0].Revenue != 4500 {
		t.Fatalf("cached rows = %+v", rows)
	}
}

func TestTopProductsWithoutRedisHitsDB(t *testing.T) {
	queries := &stubQueries{}
	svc := &report.Service{Q: queries}

	for i := 0; i < 2; i++ {
		if _, err := svc.TopProducts(context.Background(), 10, 0); err != nil {
			t.Fatalf("TopProducts: %v", err)
		}
	}
	if queries.topCalls != 2 {
		t.Fatalf("expected 2 DB calls with caching disabled, got %d", queries.topCalls)
	}
}
