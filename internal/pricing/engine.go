package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Subtotal returns the line total in minor units.
func (it Item) Subtotal() Money {
	if it.Qty <= 0 {
		return 0
	}
	return Money(it.Qty) * it.UnitPrice
}

// Summary aggregates computed sale components.
type Summary struct {
	Gross         Money
	Discount      Money
	Total         Money
	Profit        Money
	TotalQuantity int
}

// Totals calculates sale totals given the priced lines, a flat discount,
// and the payment method's internal fee in basis points.
//
// The discount is clamped to [0, gross] and the profit is the
// post-discount total net of the processor fee, rounded to the cent.
// Recomputing over the same inputs yields the same summary.
func Totals(items []Item, discount Money, internalFeeBps int32) Summary {
	var gross Money
	qty := 0
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		gross += it.Subtotal()
		qty += it.Qty
	}
	if discount < 0 {
		discount = 0
	}
	total := gross - discount
	if total < 0 {
		total = 0
	}
	return Summary{
		Gross:         gross,
		Discount:      discount,
		Total:         total,
		Profit:        applyFee(total, internalFeeBps),
		TotalQuantity: qty,
	}
}

// applyFee nets the processor fee out of total, rounding half up to the cent.
func applyFee(total Money, feeBps int32) Money {
	if feeBps <= 0 {
		return total
	}
	net := total * Money(10000-feeBps)
	return (net + 5000) / 10000
}
