package sale

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ErrInsufficientStock marks a completion rejected because a product
// would have gone negative. Wrapped with the offending product id.
var ErrInsufficientStock = errors.New("insufficient stock")

// Input is a full sale submission.
type Input struct {
	Items       []Line        `json:"items" validate:"required,min=1,dive"`
	CustomerID  int64         `json:"customer_id"`
	MethodID    int64         `json:"payment_method_id" validate:"required,gt=0"`
	Discount    pricing.Money `json:"discount"`
	Status      string        `json:"status"`
	ScheduledAt *time.Time    `json:"scheduled_at"`
	Notes       *string       `json:"notes"`
}

// PreviewInput carries the subset of a submission needed to price a cart.
type PreviewInput struct {
	Items    []Line        `json:"items" validate:"required,min=1,dive"`
	Discount pricing.Money `json:"discount"`
}

// Preview is the computed pricing of a cart before confirmation.
type Preview struct {
	Items         []Item        `json:"items"`
	TotalQuantity int           `json:"total_quantity"`
	Gross         pricing.Money `json:"gross"`
	Discount      pricing.Money `json:"discount"`
	Total         pricing.Money `json:"total"`
}

// Detail is a sale with its priced items.
type Detail struct {
	Record
	Items []Item
}

// Service drives the sale lifecycle over a Store. All writes of one
// operation happen inside a single Store transaction.
type Service struct {
	Store    Store
	Log      zerolog.Logger
	WalkInID int64
}

func (s *Service) walkIn() int64 {
	if s.WalkInID > 0 {
		return s.WalkInID
	}
	return 1
}

// PreviewSale prices a cart without persisting anything.
func (s *Service) PreviewSale(ctx context.Context, in PreviewInput) (Preview, error) {
	if len(in.Items) == 0 {
		return Preview{}, common.Validation("sale requires at least one item", nil)
	}
	products, err := s.Store.Products(ctx, productIDs(in.Items))
	if err != nil {
		return Preview{}, err
	}
	items, qty, err := PriceItems(in.Items, products)
	if err != nil {
		return Preview{}, asClientError(err)
	}
	sum := pricing.Totals(pricingItems(items), in.Discount, 0)
	return Preview{
		Items:         items,
		TotalQuantity: qty,
		Gross:         sum.Gross,
		Discount:      sum.Discount,
		Total:         sum.Total,
	}, nil
}

// Create prices and persists a sale. A completed sale decrements stock
// inside the same transaction; the whole operation is all or nothing.
// Scheduled sales require an explicit date and leave stock untouched.
func (s *Service) Create(ctx context.Context, in Input, sellerID *int64) (Detail, error) {
	if len(in.Items) == 0 {
		return Detail{}, common.Validation("sale requires at least one item", nil)
	}
	if in.Status == "" {
		in.Status = StatusCompleted
	}
	if in.Status != StatusCompleted && in.Status != StatusScheduled {
		return Detail{}, common.Validation(fmt.Sprintf("sale cannot be created as %q", in.Status), nil)
	}
	if in.Status == StatusScheduled && in.ScheduledAt == nil {
		return Detail{}, common.Validation("scheduled sale requires scheduled_at", nil)
	}
	if in.CustomerID == 0 {
		in.CustomerID = s.walkIn()
	}

	customer, err := s.Store.Customer(ctx, in.CustomerID)
	if err != nil {
		return Detail{}, notFoundOr("customer", in.CustomerID, err)
	}
	method, err := s.Store.Method(ctx, in.MethodID)
	if err != nil {
		return Detail{}, notFoundOr("payment method", in.MethodID, err)
	}
	if !method.Active {
		return Detail{}, common.Validation(fmt.Sprintf("payment method %q is inactive", method.Name), nil)
	}

	occurred := time.Now()
	if in.Status == StatusScheduled {
		occurred = *in.ScheduledAt
	}

	var out Detail
	err = s.Store.InTx(ctx, func(tx Tx) error {
		products, err := tx.ProductsForUpdate(ctx, productIDs(in.Items))
		if err != nil {
			return err
		}
		items, qty, err := PriceItems(in.Items, products)
		if err != nil {
			return asClientError(err)
		}
		sum := pricing.Totals(pricingItems(items), in.Discount, method.Terms.InternalFeeBps)

		rec := Record{
			OccurredAt:      occurred,
			TotalAmount:     sum.Total,
			Discount:        sum.Discount,
			PaidAmount:      sum.Total,
			Profit:          sum.Profit,
			TotalQuantity:   qty,
			PaymentMethodID: method.ID,
			CustomerID:      customer.ID,
			SellerID:        sellerID,
			Status:          in.Status,
			Notes:           in.Notes,
		}
		if err := tx.InsertSale(ctx, &rec); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, rec.ID, items); err != nil {
			return err
		}
		if rec.Status == StatusCompleted {
			if err := takeStock(ctx, tx, items, products); err != nil {
				return err
			}
		}
		fresh, withIDs, err := tx.SaleForUpdate(ctx, rec.ID)
		if err != nil {
			return err
		}
		out = Detail{Record: fresh, Items: withIDs}
		return nil
	})
	s.observe("create", err)
	if err != nil {
		return Detail{}, err
	}
	if out.Status == StatusCompleted && obs.SaleTotalAmount != nil {
		obs.SaleTotalAmount.Observe(float64(out.TotalAmount))
	}
	s.Log.Info().
		Int64("sale_id", out.ID).
		Str("status", out.Status).
		Int64("total", out.TotalAmount).
		Int("quantity", out.TotalQuantity).
		Msg("sale created")
	return out, nil
}

// Get returns a sale with its items.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	rec, items, err := s.Store.Sale(ctx, id)
	if err != nil {
		return Detail{}, notFoundOr("sale", id, err)
	}
	return Detail{Record: rec, Items: items}, nil
}

// List returns sales newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int32) ([]Record, int64, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, common.Validation(fmt.Sprintf("unknown status %q", status), nil)
	}
	return s.Store.List(ctx, status, limit, offset)
}

// UpdateInput carries the mutable fields of a persisted sale.
type UpdateInput struct {
	Discount   *pricing.Money `json:"discount"`
	PaidAmount *pricing.Money `json:"paid_amount"`
	Notes      *string        `json:"notes"`
}

// Update applies discount, paid amount and notes changes, then reprices
// the sale's items and totals from current data. Cancelled sales are
// immutable.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Detail, error) {
	var out Detail
	err := s.Store.InTx(ctx, func(tx Tx) error {
		rec, items, err := tx.SaleForUpdate(ctx, id)
		if err != nil {
			return notFoundOr("sale", id, err)
		}
		if rec.Status == StatusCancelled {
			return common.Conflict("cancelled sale cannot be modified")
		}
		if in.Discount != nil {
			rec.Discount = *in.Discount
		}
		if in.Notes != nil {
			rec.Notes = in.Notes
		}
		method, err := s.Store.Method(ctx, rec.PaymentMethodID)
		if err != nil {
			return err
		}
		repriced, err := s.reprice(ctx, tx, &rec, items, method.Terms.InternalFeeBps)
		if err != nil {
			return err
		}
		if in.PaidAmount != nil {
			rec.PaidAmount = *in.PaidAmount
		} else {
			rec.PaidAmount = rec.TotalAmount
		}
		if err := tx.UpdateSale(ctx, rec); err != nil {
			return err
		}
		out = Detail{Record: rec, Items: repriced}
		return nil
	})
	s.observe("update", err)
	if err != nil {
		return Detail{}, err
	}
	return out, nil
}

// Finalize transitions a scheduled sale to completed: reprices items
// against current tier tables, then decrements stock.
func (s *Service) Finalize(ctx context.Context, id int64) (Detail, error) {
	var out Detail
	err := s.Store.InTx(ctx, func(tx Tx) error {
		rec, items, err := tx.SaleForUpdate(ctx, id)
		if err != nil {
			return notFoundOr("sale", id, err)
		}
		if rec.Status != StatusScheduled {
			return common.Conflict(fmt.Sprintf("only scheduled sales can be finalized, sale is %s", rec.Status))
		}
		method, err := s.Store.Method(ctx, rec.PaymentMethodID)
		if err != nil {
			return err
		}
		repriced, err := s.reprice(ctx, tx, &rec, items, method.Terms.InternalFeeBps)
		if err != nil {
			return err
		}
		products, err := tx.ProductsForUpdate(ctx, itemProductIDs(repriced))
		if err != nil {
			return err
		}
		if err := takeStock(ctx, tx, repriced, products); err != nil {
			return err
		}
		rec.Status = StatusCompleted
		rec.OccurredAt = time.Now()
		rec.PaidAmount = rec.TotalAmount
		if err := tx.UpdateSale(ctx, rec); err != nil {
			return err
		}
		out = Detail{Record: rec, Items: repriced}
		return nil
	})
	s.observe("finalize", err)
	if err != nil {
		return Detail{}, err
	}
	if obs.SaleTotalAmount != nil {
		obs.SaleTotalAmount.Observe(float64(out.TotalAmount))
	}
	s.Log.Info().Int64("sale_id", out.ID).Msg("sale finalized")
	return out, nil
}

// Cancel sets a sale to cancelled. Stock is restored only when leaving
// the completed state, so a scheduled sale that never took stock cannot
// over-credit it. Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, id int64) (Detail, error) {
	var out Detail
	err := s.Store.InTx(ctx, func(tx Tx) error {
		rec, items, err := tx.SaleForUpdate(ctx, id)
		if err != nil {
			return notFoundOr("sale", id, err)
		}
		if rec.Status == StatusCancelled {
			return common.Conflict("sale is already cancelled")
		}
		if rec.Status == StatusCompleted {
			if err := restoreStock(ctx, tx, items); err != nil {
				return err
			}
		}
		rec.Status = StatusCancelled
		if err := tx.UpdateSale(ctx, rec); err != nil {
			return err
		}
		out = Detail{Record: rec, Items: items}
		return nil
	})
	s.observe("cancel", err)
	if err != nil {
		return Detail{}, err
	}
	s.Log.Info().Int64("sale_id", out.ID).Msg("sale cancelled")
	return out, nil
}

// Delete removes a sale and its items, restoring stock first when the
// sale had completed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.Store.InTx(ctx, func(tx Tx) error {
		rec, items, err := tx.SaleForUpdate(ctx, id)
		if err != nil {
			return notFoundOr("sale", id, err)
		}
		if rec.Status == StatusCompleted {
			if err := restoreStock(ctx, tx, items); err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	s.observe("delete", err)
	if err == nil {
		s.Log.Info().Int64("sale_id", id).Msg("sale deleted")
	}
	return err
}

// reprice re-derives every item's unit price and the sale totals from
// the sale's cumulative quantity, persisting changed item pricing.
// Running it twice over unchanged data yields identical totals.
func (s *Service) reprice(ctx context.Context, tx Tx, rec *Record, items []Item, feeBps int32) ([]Item, error) {
	products, err := tx.ProductsForUpdate(ctx, itemProductIDs(items))
	if err != nil {
		return nil, err
	}
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	repriced, qty, err := PriceItems(lines, products)
	if err != nil {
		return nil, asClientError(err)
	}
	for i := range repriced {
		repriced[i].ID = items[i].ID
		if repriced[i].UnitPrice != items[i].UnitPrice || repriced[i].Subtotal != items[i].Subtotal {
			if err := tx.UpdateItemPricing(ctx, items[i].ID, repriced[i].UnitPrice, repriced[i].Subtotal); err != nil {
				return nil, err
			}
		}
	}
	sum := pricing.Totals(pricingItems(repriced), rec.Discount, feeBps)
	rec.TotalAmount = sum.Total
	rec.Discount = sum.Discount
	rec.Profit = sum.Profit
	rec.TotalQuantity = qty
	return repriced, nil
}

// takeStock decrements stock per item, rejecting any line that would go
// negative. products must come from a locked read in the same tx.
func takeStock(ctx context.Context, tx Tx, items []Item, products map[int64]Product) error {
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return common.NotFound("product", it.ProductID)
		}
		if p.Stock < it.Quantity {
			if obs.StockRejectionsTotal != nil {
				obs.StockRejectionsTotal.Inc()
			}
			return common.NewAppError("INSUFFICIENT_STOCK",
				fmt.Sprintf("product %q has %d in stock, %d requested", p.Name, p.Stock, it.Quantity),
				http.StatusConflict,
				fmt.Errorf("%w: product %d", ErrInsufficientStock, it.ProductID))
		}
	}
	for _, it := range items {
		if err := tx.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// restoreStock adds each item's quantity back to its product.
func restoreStock(ctx context.Context, tx Tx, items []Item) error {
	for _, it := range items {
		if err := tx.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) observe(op string, err error) {
	if obs.SaleLifecycleTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.SaleLifecycleTotal.WithLabelValues(op, result).Inc()
}

func productIDs(lines []Line) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	out := make([]int64, 0, len(lines))
	for _, ln := range lines {
		if _, ok := seen[ln.ProductID]; ok {
			continue
		}
		seen[ln.ProductID] = struct{}{}
		out = append(out, ln.ProductID)
	}
	return out
}

func itemProductIDs(items []Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ProductID
	}
	return out
}

func notFoundOr(entity string, id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NotFound(entity, id)
	}
	return err
}

func asClientError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NewAppError("NOT_FOUND", err.Error(), http.StatusNotFound, err)
	}
	return common.Validation(err.Error(), err)
}
