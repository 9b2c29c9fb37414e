package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Products provides access to the product inventory.
type Products struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, name, description, stock, barcode, category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.Barcode, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListParams narrows a product listing.
type ListParams struct {
	Query      string
	CategoryID int64
	Limit      int32
	Offset     int32
}

// List returns products matching the params, fuzziest matches first when
// a query is present, otherwise ordered by name. Matching combines
// substring hits on name, description, barcode, category and tag names
// with trigram similarity the way the storefront search behaves.
func (r Products) List(ctx context.Context, params ListParams) ([]Product, error) {
	if params.Query != "" {
		rows, err := r.Pool.Query(ctx, `
			SELECT DISTINCT p.id, p.name, p.description, p.stock, p.barcode, p.category_id, p.created_at, p.updated_at,
			       similarity(p.name, $1) + similarity(p.description, $1) + similarity(c.name, $1) AS sim
			FROM products p
			JOIN categories c ON c.id = p.category_id
			LEFT JOIN product_tags pt ON pt.product_id = p.id
			LEFT JOIN tags t ON t.id = pt.tag_id
			WHERE ($2 = 0 OR p.category_id = $2)
			  AND (p.name ILIKE '%' || $1 || '%'
			       OR p.description ILIKE '%' || $1 || '%'
			       OR p.barcode ILIKE '%' || $1 || '%'
			       OR c.name ILIKE '%' || $1 || '%'
			       OR t.name ILIKE '%' || $1 || '%'
			       OR similarity(p.name, $1) + similarity(p.description, $1) + similarity(c.name, $1) > 0.2)
			ORDER BY sim DESC, p.name
			LIMIT $3 OFFSET $4`,
			params.Query, params.CategoryID, params.Limit, params.Offset)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return collectProductsWithSim(rows)
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = 0 OR category_id = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3`,
		params.CategoryID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Count returns the total number of products matching the params.
func (r Products) Count(ctx context.Context, params ListParams) (int64, error) {
	var total int64
	var err error
	if params.Query != "" {
		err = r.Pool.QueryRow(ctx, `
			SELECT COUNT(DISTINCT p.id)
			FROM products p
			JOIN categories c ON c.id = p.category_id
			LEFT JOIN product_tags pt ON pt.product_id = p.id
			LEFT JOIN tags t ON t.id = pt.tag_id
			WHERE ($2 = 0 OR p.category_id = $2)
			  AND (p.name ILIKE '%' || $1 || '%'
			       OR p.description ILIKE '%' || $1 || '%'
			       OR p.barcode ILIKE '%' || $1 || '%'
			       OR c.name ILIKE '%' || $1 || '%'
			       OR t.name ILIKE '%' || $1 || '%'
			       OR similarity(p.name, $1) + similarity(p.description, $1) + similarity(c.name, $1) > 0.2)`,
			params.Query, params.CategoryID).Scan(&total)
	} else {
		err = r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE ($1 = 0 OR category_id = $1)`, params.CategoryID).Scan(&total)
	}
	return total, err
}

// Get returns a single product by id.
func (r Products) Get(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetByBarcode returns the product carrying the exact barcode.
func (r Products) GetByBarcode(ctx context.Context, barcode string) (Product, error) {
	return scanProduct(r.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = $1`, barcode))
}

// Create inserts a product.
func (r Products) Create(ctx context.Context, p Product) (Product, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO products (name, description, stock, barcode, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		p.Name, p.Description, p.Stock, p.Barcode, p.CategoryID)
	return scanProduct(row)
}

// Update rewrites a product's mutable fields.
func (r Products) Update(ctx context.Context, p Product) (Product, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, stock = $4, barcode = $5, category_id = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Stock, p.Barcode, p.CategoryID)
	return scanProduct(row)
}

// Delete removes a product. Sale items referencing it block deletion.
func (r Products) Delete(ctx context.Context, id int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Tags returns the tags attached to a product.
func (r Products) Tags(ctx context.Context, productID int64) ([]Tag, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT t.id, t.name
		FROM tags t
		JOIN product_tags pt ON pt.tag_id = t.id
		WHERE pt.product_id = $1
		ORDER BY t.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tag, 0, 8)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AttachTag links a tag to a product, creating the tag by name if needed.
func (r Products) AttachTag(ctx context.Context, productID int64, name string) (Tag, error) {
	var t Tag
	err := r.Pool.QueryRow(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return Tag{}, err
	}
	_, err = r.Pool.Exec(ctx, `
		INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, productID, t.ID)
	return t, err
}

// DetachTag unlinks a tag from a product.
func (r Products) DetachTag(ctx context.Context, productID, tagID int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM product_tags WHERE product_id = $1 AND tag_id = $2`, productID, tagID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	out := make([]Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func collectProductsWithSim(rows pgx.Rows) ([]Product, error) {
	out := make([]Product, 0, 32)
	for rows.Next() {
		var p Product
		var sim float64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.Barcode, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt, &sim); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
