package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Reports aggregates completed sales for the dashboard endpoints.
type Reports struct {
	Pool *pgxpool.Pool
}

// DailySales is one day of completed sale totals.
type DailySales struct {
	Day      time.Time     `json:"day"`
	Sales    int64         `json:"sales"`
	Quantity int64         `json:"quantity"`
	Revenue  pricing.Money `json:"revenue"`
	Discount pricing.Money `json:"discount"`
	Profit   pricing.Money `json:"profit"`
}

// SalesDailyRange returns per-day totals for completed sales, inclusive
// of from and exclusive of to.
func (r Reports) SalesDailyRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT date_trunc('day', occurred_at)::date AS day,
		       COUNT(*), COALESCE(SUM(total_quantity), 0),
		       COALESCE(SUM(total_amount), 0), COALESCE(SUM(discount), 0), COALESCE(SUM(profit), 0)
		FROM sales
		WHERE status = 'completed' AND occurred_at >= $1 AND occurred_at < $2
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailySales, 0, 31)
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Sales, &d.Quantity, &d.Revenue, &d.Discount, &d.Profit); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopProduct is one row of the best-seller ranking.
type TopProduct struct {
	ProductID int64         `json:"product_id"`
	Name      string        `json:"name"`
	Quantity  int64         `json:"quantity"`
	Revenue   pricing.Money `json:"revenue"`
}

// TopProducts ranks products by units sold across completed sales.
func (r Reports) TopProducts(ctx context.Context, limit, offset int32) ([]TopProduct, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT p.id, p.name, COALESCE(SUM(si.quantity), 0) AS qty, COALESCE(SUM(si.subtotal), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id AND s.status = 'completed'
		JOIN products p ON p.id = si.product_id
		GROUP BY p.id, p.name
		ORDER BY qty DESC, p.name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TopProduct, 0, limit)
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Quantity, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MethodBreakdown is revenue attributed to one payment method.
type MethodBreakdown struct {
	MethodID int64         `json:"payment_method_id"`
	Name     string        `json:"name"`
	Sales    int64         `json:"sales"`
	Revenue  pricing.Money `json:"revenue"`
	Profit   pricing.Money `json:"profit"`
}

// SalesByMethod splits completed sale revenue across payment methods.
func (r Reports) SalesByMethod(ctx context.Context, from, to time.Time) ([]MethodBreakdown, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT pm.id, pm.name, COUNT(s.id), COALESCE(SUM(s.total_amount), 0), COALESCE(SUM(s.profit), 0)
		FROM sales s
		JOIN payment_methods pm ON pm.id = s.payment_method_id
		WHERE s.status = 'completed' AND s.occurred_at >= $1 AND s.occurred_at < $2
		GROUP BY pm.id, pm.name
		ORDER BY 4 DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MethodBreakdown, 0, 8)
	for rows.Next() {
		var m MethodBreakdown
		if err := rows.Scan(&m.MethodID, &m.Name, &m.Sales, &m.Revenue, &m.Profit); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
