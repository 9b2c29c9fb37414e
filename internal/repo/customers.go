package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WalkInCustomerID is the distinguished row representing an unregistered buyer.
const WalkInCustomerID int64 = 1

// Customers provides access to the customer book.
type Customers struct {
	Pool *pgxpool.Pool
}

const customerColumns = `id, name, trade_name, tax_id, phone, email, address, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.TradeName, &c.TaxID, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns customers ordered by name.
func (r Customers) List(ctx context.Context, limit, offset int32) ([]Customer, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Customer, 0, 32)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the total number of customers.
func (r Customers) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total)
	return total, err
}

// Get returns a single customer by id.
func (r Customers) Get(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.Pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

// Create inserts a customer.
func (r Customers) Create(ctx context.Context, c Customer) (Customer, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO customers (name, trade_name, tax_id, phone, email, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+customerColumns,
		c.Name, c.TradeName, c.TaxID, c.Phone, c.Email, c.Address)
	return scanCustomer(row)
}

// Update rewrites a customer's fields.
func (r Customers) Update(ctx context.Context, c Customer) (Customer, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, trade_name = $3, tax_id = $4, phone = $5, email = $6, address = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+customerColumns,
		c.ID, c.Name, c.TradeName, c.TaxID, c.Phone, c.Email, c.Address)
	return scanCustomer(row)
}

// Delete removes a customer.
func (r Customers) Delete(ctx context.Context, id int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
