package repo

import (
	"time"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Category is a product category carrying its quantity-tier price table.
type Category struct {
	ID        int64
	Name      string
	Tiers     pricing.TierTable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag labels products for search and grouping.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a sellable item owned by exactly one category.
type Product struct {
	ID          int64
	Name        string
	Description string
	Stock       int
	Barcode     *string
	CategoryID  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Customer is a buyer record. Row id 1 is the walk-in customer.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TradeName *string   `json:"trade_name,omitempty"`
	TaxID     *string   `json:"tax_id,omitempty"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentMethod is a settlement option with fee and installment terms.
type PaymentMethod struct {
	ID        int64
	Name      string
	Terms     pricing.Terms
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a staff account used for authentication and role gating.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}
