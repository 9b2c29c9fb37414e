package sale

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Sale status values. Scheduled sales move to completed via Finalize;
// cancelled is terminal.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusScheduled = "scheduled"
)

// ValidStatus reports whether s is a known sale status.
func ValidStatus(s string) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusScheduled
}

// ErrNotFound is returned by Store implementations when a referenced
// entity does not exist.
var ErrNotFound = errors.New("sale: not found")

// Product carries the slice of a product the sale engine prices against.
type Product struct {
	ID    int64
	Name  string
	Stock int
	Tiers pricing.TierTable
}

// Customer is the buyer reference attached to a sale.
type Customer struct {
	ID        int64
	Name      string
	TradeName *string
	TaxID     *string
	Phone     string
	Address   *string
}

// Method is the payment method reference attached to a sale.
type Method struct {
	ID     int64
	Name   string
	Terms  pricing.Terms
	Active bool
}

// Line is one raw cart entry before pricing.
type Line struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// Item is a priced sale line.
type Item struct {
	ID          int64         `json:"id,omitempty"`
	ProductID   int64         `json:"product_id"`
	ProductName string        `json:"product"`
	Quantity    int           `json:"quantity"`
	UnitPrice   pricing.Money `json:"unit_price"`
	Subtotal    pricing.Money `json:"subtotal"`
}

// Record is a persisted sale header.
type Record struct {
	ID              int64
	OccurredAt      time.Time
	TotalAmount     pricing.Money
	Discount        pricing.Money
	PaidAmount      pricing.Money
	Profit          pricing.Money
	TotalQuantity   int
	PaymentMethodID int64
	CustomerID      int64
	SellerID        *int64
	Status          string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Tx exposes the writes available inside one sale transaction. Stock
// reads through ProductsForUpdate hold row locks until the transaction
// ends, so concurrent completions against the same product serialize.
type Tx interface {
	ProductsForUpdate(ctx context.Context, ids []int64) (map[int64]Product, error)
	SaleForUpdate(ctx context.Context, id int64) (Record, []Item, error)
	InsertSale(ctx context.Context, rec *Record) error
	InsertItems(ctx context.Context, saleID int64, items []Item) error
	UpdateSale(ctx context.Context, rec Record) error
	UpdateItemPricing(ctx context.Context, itemID int64, unitPrice, subtotal pricing.Money) error
	DeleteSale(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, productID int64, delta int) error
}

// Store is the persistence boundary of the sale lifecycle.
type Store interface {
	Customer(ctx context.Context, id int64) (Customer, error)
	Method(ctx context.Context, id int64) (Method, error)
	Products(ctx context.Context, ids []int64) (map[int64]Product, error)
	Sale(ctx context.Context, id int64) (Record, []Item, error)
	List(ctx context.Context, status string, limit, offset int32) ([]Record, int64, error)
	InTx(ctx context.Context, fn func(Tx) error) error
}
