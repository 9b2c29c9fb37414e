// Seeder loads a demo dataset: staff accounts, a tiered catalog,
// payment methods and a few named customers. Safe to re-run.
package main

import (
	"context"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-pos/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := db.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	seedUsers(ctx, conn)
	seedCatalog(ctx, conn)
	seedPaymentMethods(ctx, conn)
	seedCustomers(ctx, conn)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, conn *pgx.Conn) {
	users := []struct {
		Name     string
		Email    string
		Password string
		Role     string
	}{
		{"Admin", "admin@pos.local", "admin12345", "admin"},
		{"Store Manager", "manager@pos.local", "manager12345", "manager"},
		{"Register One", "register1@pos.local", "register12345", "seller"},
	}

	log.Println("Seeding users...")
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.Email, err)
		}
		_, err = conn.Exec(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING`,
			u.Name, u.Email, hash, u.Role)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedCatalog(ctx context.Context, conn *pgx.Conn) {
	money := func(v int64) *int64 { return &v }
	limit := func(v int32) *int32 { return &v }

	// Beverages carries the full three-tier table, Snacks only two
	// tiers, Cleaning a single flat price.
	categories := []struct {
		Name   string
		Tier1  int64
		Tier2  *int64
		Tier3  *int64
		Limit1 *int32
		Limit2 *int32
	}{
		{"Beverages", 1000, money(900), money(800), limit(3), limit(10)},
		{"Snacks", 500, money(450), nil, limit(5), nil},
		{"Cleaning", 1500, nil, nil, nil, nil},
	}

	log.Println("Seeding catalog...")
	ids := map[string]int64{}
	for _, c := range categories {
		var id int64
		err := conn.QueryRow(ctx, `
			INSERT INTO categories (name, price_tier1, price_tier2, price_tier3, qty_limit1, qty_limit2)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			c.Name, c.Tier1, c.Tier2, c.Tier3, c.Limit1, c.Limit2).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed category %s: %v", c.Name, err)
		}
		ids[c.Name] = id
	}

	products := []struct {
		Name     string
		Barcode  string
		Stock    int
		Category string
	}{
		{"Cola 350ml", "7891000100103", 48, "Beverages"},
		{"Orange Juice 1L", "7891000100202", 24, "Beverages"},
		{"Mineral Water 500ml", "7891000100301", 120, "Beverages"},
		{"Potato Chips 90g", "7892000200109", 60, "Snacks"},
		{"Chocolate Bar 45g", "7892000200208", 80, "Snacks"},
		{"Dish Soap 500ml", "7893000300105", 30, "Cleaning"},
		{"Laundry Detergent 1kg", "7893000300204", 18, "Cleaning"},
	}
	for _, p := range products {
		_, err := conn.Exec(ctx, `
			INSERT INTO products (name, stock, barcode, category_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (barcode) DO NOTHING`,
			p.Name, p.Stock, p.Barcode, ids[p.Category])
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedPaymentMethods(ctx context.Context, conn *pgx.Conn) {
	methods := []struct {
		Name                   string
		Kind                   string
		FeeBps                 int32
		MinInstallment         int64
		MaxInstallments        int32
		NoInterestInstallments int32
		InterestRateBps        int32
	}{
		{"Cash", "cash", 0, 0, 1, 1, 0},
		{"Pix", "pix", 0, 0, 1, 1, 0},
		{"Debit Card", "debit", 100, 0, 1, 1, 0},
		{"Credit Card", "credit", 300, 2000, 12, 1, 300},
		{"Boleto", "boleto", 150, 5000, 6, 1, 200},
	}

	log.Println("Seeding payment methods...")
	for _, m := range methods {
		var exists bool
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM payment_methods WHERE name = $1)`, m.Name).Scan(&exists); err != nil {
			log.Fatalf("Failed to check payment method %s: %v", m.Name, err)
		}
		if exists {
			continue
		}
		_, err := conn.Exec(ctx, `
			INSERT INTO payment_methods (name, kind, internal_fee_bps, min_installment_amount,
				max_installments, no_interest_installments, interest_rate_bps, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
			m.Name, m.Kind, m.FeeBps, m.MinInstallment, m.MaxInstallments,
			m.NoInterestInstallments, m.InterestRateBps)
		if err != nil {
			log.Fatalf("Failed to seed payment method %s: %v", m.Name, err)
		}
	}
}

func seedCustomers(ctx context.Context, conn *pgx.Conn) {
	customers := []struct {
		Name  string
		Phone string
	}{
		{"Maria Souza", "+55 11 91234-0001"},
		{"Carlos Lima", "+55 11 91234-0002"},
		{"Ana Ferreira", "+55 11 91234-0003"},
	}

	log.Println("Seeding customers...")
	for _, c := range customers {
		var exists bool
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM customers WHERE name = $1)`, c.Name).Scan(&exists); err != nil {
			log.Fatalf("Failed to check customer %s: %v", c.Name, err)
		}
		if exists {
			continue
		}
		if _, err := conn.Exec(ctx,
			`INSERT INTO customers (name, phone) VALUES ($1, $2)`, c.Name, c.Phone); err != nil {
			log.Fatalf("Failed to seed customer %s: %v", c.Name, err)
		}
	}
}
