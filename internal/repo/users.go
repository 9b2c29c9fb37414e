package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Users provides access to staff accounts.
type Users struct {
	Pool *pgxpool.Pool
}

// GetByEmail returns the user owning the email address.
func (r Users) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt)
	return u, err
}

// Get returns a user by id.
func (r Users) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt)
	return u, err
}

// Create inserts a staff account.
func (r Users) Create(ctx context.Context, u User) (User, error) {
	err := r.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.Name, u.Role).
		Scan(&u.ID, &u.CreatedAt)
	return u, err
}
