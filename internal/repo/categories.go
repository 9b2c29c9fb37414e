package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Categories provides access to the category price tables.
type Categories struct {
	Pool *pgxpool.Pool
}

const categoryColumns = `id, name, price_tier1, price_tier2, price_tier3, qty_limit1, qty_limit2, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Tiers.Tier1, &c.Tiers.Tier2, &c.Tiers.Tier3,
		&c.Tiers.Limit1, &c.Tiers.Limit2, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns all categories ordered by name.
func (r Categories) List(ctx context.Context) ([]Category, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0, 16)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns a single category by id.
func (r Categories) Get(ctx context.Context, id int64) (Category, error) {
	return scanCategory(r.Pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

// Create inserts a category and returns it with generated fields.
func (r Categories) Create(ctx context.Context, c Category) (Category, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO categories (name, price_tier1, price_tier2, price_tier3, qty_limit1, qty_limit2)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		c.Name, c.Tiers.Tier1, c.Tiers.Tier2, c.Tiers.Tier3, c.Tiers.Limit1, c.Tiers.Limit2)
	return scanCategory(row)
}

// Update rewrites a category's name and tier table.
func (r Categories) Update(ctx context.Context, c Category) (Category, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, price_tier1 = $3, price_tier2 = $4, price_tier3 = $5,
		    qty_limit1 = $6, qty_limit2 = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Tiers.Tier1, c.Tiers.Tier2, c.Tiers.Tier3, c.Tiers.Limit1, c.Tiers.Limit2)
	return scanCategory(row)
}

// Delete removes a category. Referencing products block deletion at the
// database level.
func (r Categories) Delete(ctx context.Context, id int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
