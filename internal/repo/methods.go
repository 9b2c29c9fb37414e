package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentMethods provides access to the configured settlement options.
type PaymentMethods struct {
	Pool *pgxpool.Pool
}

const methodColumns = `id, name, kind, internal_fee_bps, min_installment_amount, max_installments, no_interest_installments, interest_rate_bps, active, created_at, updated_at`

func scanMethod(row pgx.Row) (PaymentMethod, error) {
	var m PaymentMethod
	err := row.Scan(&m.ID, &m.Name, &m.Terms.Kind, &m.Terms.InternalFeeBps, &m.Terms.MinInstallmentAmount,
		&m.Terms.MaxInstallments, &m.Terms.NoInterestInstallments, &m.Terms.InterestRateBps,
		&m.Active, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// List returns methods ordered by name, optionally only active ones.
func (r PaymentMethods) List(ctx context.Context, activeOnly bool) ([]PaymentMethod, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+methodColumns+`
		FROM payment_methods
		WHERE (NOT $1 OR active)
		ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PaymentMethod, 0, 8)
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns a single method by id.
func (r PaymentMethods) Get(ctx context.Context, id int64) (PaymentMethod, error) {
	return scanMethod(r.Pool.QueryRow(ctx, `SELECT `+methodColumns+` FROM payment_methods WHERE id = $1`, id))
}

// Create inserts a method.
func (r PaymentMethods) Create(ctx context.Context, m PaymentMethod) (PaymentMethod, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO payment_methods (name, kind, internal_fee_bps, min_installment_amount, max_installments, no_interest_installments, interest_rate_bps, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+methodColumns,
		m.Name, m.Terms.Kind, m.Terms.InternalFeeBps, m.Terms.MinInstallmentAmount,
		m.Terms.MaxInstallments, m.Terms.NoInterestInstallments, m.Terms.InterestRateBps, m.Active)
	return scanMethod(row)
}

// Update rewrites a method's configuration.
func (r PaymentMethods) Update(ctx context.Context, m PaymentMethod) (PaymentMethod, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE payment_methods
		SET name = $2, kind = $3, internal_fee_bps = $4, min_installment_amount = $5,
		    max_installments = $6, no_interest_installments = $7, interest_rate_bps = $8,
		    active = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+methodColumns,
		m.ID, m.Name, m.Terms.Kind, m.Terms.InternalFeeBps, m.Terms.MinInstallmentAmount,
		m.Terms.MaxInstallments, m.Terms.NoInterestInstallments, m.Terms.InterestRateBps, m.Active)
	return scanMethod(row)
}

// Delete removes a method. Sales referencing it block deletion.
func (r PaymentMethods) Delete(ctx context.Context, id int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
