package sale

import (
	"fmt"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// PriceItems turns raw cart lines into priced items. Tier prices are a
// bulk-discount policy over the whole cart: the quantity fed to each
// product's tier table is the sale's cumulative quantity across every
// line, resolved only after all lines are summed, so the cart's input
// order can never change the result. Lines referencing the same product
// are merged. The returned count is that cumulative quantity.
func PriceItems(lines []Line, products map[int64]Product) ([]Item, int, error) {
	merged := make([]Item, 0, len(lines))
	index := make(map[int64]int, len(lines))
	total := 0

	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, 0, fmt.Errorf("product %d: quantity must be positive", ln.ProductID)
		}
		total += ln.Quantity
		if i, ok := index[ln.ProductID]; ok {
			merged[i].Quantity += ln.Quantity
			continue
		}
		p, ok := products[ln.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("product %d: %w", ln.ProductID, ErrNotFound)
		}
		index[ln.ProductID] = len(merged)
		merged = append(merged, Item{ProductID: p.ID, ProductName: p.Name, Quantity: ln.Quantity})
	}

	for i := range merged {
		p := products[merged[i].ProductID]
		unit := p.Tiers.UnitPrice(total)
		merged[i].UnitPrice = unit
		merged[i].Subtotal = unit * pricing.Money(merged[i].Quantity)
	}
	return merged, total, nil
}

// pricingItems adapts priced sale items to the totals calculator.
func pricingItems(items []Item) []pricing.Item {
	out := make([]pricing.Item, len(items))
	for i, it := range items {
		out[i] = pricing.Item{Qty: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}
