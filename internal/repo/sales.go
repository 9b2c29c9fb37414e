package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// Sales implements sale.Store over pgx. Every lifecycle write runs
// inside one database transaction; product rows read for pricing are
// locked with FOR UPDATE so concurrent completions serialize.
type Sales struct {
	Pool *pgxpool.Pool
}

var _ sale.Store = Sales{}

const saleColumns = `id, occurred_at, total_amount, discount, paid_amount, profit, total_quantity,
	payment_method_id, customer_id, seller_id, status, notes, created_at, updated_at`

func scanSale(row pgx.Row) (sale.Record, error) {
	var rec sale.Record
	err := row.Scan(&rec.ID, &rec.OccurredAt, &rec.TotalAmount, &rec.Discount, &rec.PaidAmount,
		&rec.Profit, &rec.TotalQuantity, &rec.PaymentMethodID, &rec.CustomerID, &rec.SellerID,
		&rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func notFoundErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sale.ErrNotFound
	}
	return err
}

// Customer resolves the sale-facing view of a customer.
func (r Sales) Customer(ctx context.Context, id int64) (sale.Customer, error) {
	var c sale.Customer
	err := r.Pool.QueryRow(ctx, `
		SELECT id, name, trade_name, tax_id, phone, address
		FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.TradeName, &c.TaxID, &c.Phone, &c.Address)
	return c, notFoundErr(err)
}

// Method resolves the sale-facing view of a payment method.
func (r Sales) Method(ctx context.Context, id int64) (sale.Method, error) {
	var m sale.Method
	err := r.Pool.QueryRow(ctx, `
		SELECT id, name, kind, internal_fee_bps, min_installment_amount, max_installments,
		       no_interest_installments, interest_rate_bps, active
		FROM payment_methods WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Terms.Kind, &m.Terms.InternalFeeBps, &m.Terms.MinInstallmentAmount,
			&m.Terms.MaxInstallments, &m.Terms.NoInterestInstallments, &m.Terms.InterestRateBps, &m.Active)
	return m, notFoundErr(err)
}

const saleProductQuery = `
	SELECT p.id, p.name, p.stock, c.price_tier1, c.price_tier2, c.price_tier3, c.qty_limit1, c.qty_limit2
	FROM products p
	JOIN categories c ON c.id = p.category_id
	WHERE p.id = ANY($1)`

func collectSaleProducts(rows pgx.Rows) (map[int64]sale.Product, error) {
	defer rows.Close()
	out := make(map[int64]sale.Product)
	for rows.Next() {
		var p sale.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.Tiers.Tier1, &p.Tiers.Tier2, &p.Tiers.Tier3,
			&p.Tiers.Limit1, &p.Tiers.Limit2); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// Products loads products with their category tier tables, unlocked.
func (r Sales) Products(ctx context.Context, ids []int64) (map[int64]sale.Product, error) {
	rows, err := r.Pool.Query(ctx, saleProductQuery, ids)
	if err != nil {
		return nil, err
	}
	return collectSaleProducts(rows)
}

// Sale loads a sale header and its items.
func (r Sales) Sale(ctx context.Context, id int64) (sale.Record, []sale.Item, error) {
	rec, err := scanSale(r.Pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		return sale.Record{}, nil, notFoundErr(err)
	}
	items, err := loadItems(ctx, r.Pool, id)
	if err != nil {
		return sale.Record{}, nil, err
	}
	return rec, items, nil
}

// List returns sales newest first, with an optional status filter.
func (r Sales) List(ctx context.Context, status string, limit, offset int32) ([]sale.Record, int64, error) {
	var total int64
	if err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales WHERE ($1 = '' OR status = $1)`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE ($1 = '' OR status = $1)
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]sale.Record, 0, limit)
	for rows.Next() {
		rec, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// InTx runs fn inside a database transaction, rolling back on error.
func (r Sales) InTx(ctx context.Context, fn func(sale.Tx) error) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(saleTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type saleTx struct {
	tx pgx.Tx
}

var _ sale.Tx = saleTx{}

// ProductsForUpdate locks the product rows for the rest of the
// transaction before returning them with their tier tables.
func (t saleTx) ProductsForUpdate(ctx context.Context, ids []int64) (map[int64]sale.Product, error) {
	rows, err := t.tx.Query(ctx, saleProductQuery+` ORDER BY p.id FOR UPDATE OF p`, ids)
	if err != nil {
		return nil, err
	}
	return collectSaleProducts(rows)
}

// SaleForUpdate locks and loads a sale header plus its items.
func (t saleTx) SaleForUpdate(ctx context.Context, id int64) (sale.Record, []sale.Item, error) {
	rec, err := scanSale(t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return sale.Record{}, nil, notFoundErr(err)
	}
	items, err := loadItems(ctx, t.tx, id)
	if err != nil {
		return sale.Record{}, nil, err
	}
	return rec, items, nil
}

// InsertSale writes the header and fills in generated fields.
func (t saleTx) InsertSale(ctx context.Context, rec *sale.Record) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO sales (occurred_at, total_amount, discount, paid_amount, profit, total_quantity,
			payment_method_id, customer_id, seller_id, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		rec.OccurredAt, rec.TotalAmount, rec.Discount, rec.PaidAmount, rec.Profit, rec.TotalQuantity,
		rec.PaymentMethodID, rec.CustomerID, rec.SellerID, rec.Status, rec.Notes).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// InsertItems writes the priced lines in one batch.
func (t saleTx) InsertItems(ctx context.Context, saleID int64, items []sale.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5)`,
			saleID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

// UpdateSale rewrites the mutable header fields.
func (t saleTx) UpdateSale(ctx context.Context, rec sale.Record) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE sales
		SET occurred_at = $2, total_amount = $3, discount = $4, paid_amount = $5, profit = $6,
		    total_quantity = $7, status = $8, notes = $9, updated_at = now()
		WHERE id = $1`,
		rec.ID, rec.OccurredAt, rec.TotalAmount, rec.Discount, rec.PaidAmount, rec.Profit,
		rec.TotalQuantity, rec.Status, rec.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

// UpdateItemPricing rewrites one line's derived price fields.
func (t saleTx) UpdateItemPricing(ctx context.Context, itemID int64, unitPrice, subtotal pricing.Money) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sale_items SET unit_price = $2, subtotal = $3 WHERE id = $1`, itemID, unitPrice, subtotal)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

// DeleteSale removes the header; items cascade at the database level.
func (t saleTx) DeleteSale(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed delta to one product's stock.
func (t saleTx) AdjustStock(ctx context.Context, productID int64, delta int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, productID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q queryer, saleID int64) ([]sale.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT si.id, si.product_id, p.name, si.quantity, si.unit_price, si.subtotal
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sale.Item, 0, 8)
	for rows.Next() {
		var it sale.Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
