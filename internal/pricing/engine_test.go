package pricing

import "testing"

func TestTotals(t *testing.T) {
	items := []Item{
		{Qty: 3, UnitPrice: 1000},
		{Qty: 2, UnitPrice: 1000},
	}
	sum := Totals(items, 500, 300)
	if sum.Gross != 5000 {
		t.Fatalf("gross: expected 5000, got %d", sum.Gross)
	}
	if sum.Total != 4500 {
		t.Fatalf("total: expected 4500, got %d", sum.Total)
	}
	// 4500 * 0.97 = 4365
	if sum.Profit != 4365 {
		t.Fatalf("profit: expected 4365, got %d", sum.Profit)
	}
	if sum.TotalQuantity != 5 {
		t.Fatalf("quantity: expected 5, got %d", sum.TotalQuantity)
	}
}

func TestTotalsClampsDiscount(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: 1000}}

	if sum := Totals(items, -200, 0); sum.Discount != 0 || sum.Total != 1000 {
		t.Fatalf("negative discount: got discount %d total %d", sum.Discount, sum.Total)
	}
	if sum := Totals(items, 5000, 0); sum.Total != 0 || sum.Profit != 0 {
		t.Fatalf("oversized discount: expected total and profit 0, got %d and %d", sum.Total, sum.Profit)
	}
}

func TestTotalsIdempotent(t *testing.T) {
	items := []Item{
		{Qty: 4, UnitPrice: 750},
		{Qty: 1, UnitPrice: 1250},
	}
	first := Totals(items, 300, 150)
	second := Totals(items, first.Discount, 150)
	if first != second {
		t.Fatalf("totals not idempotent: %+v vs %+v", first, second)
	}
}

func TestTotalsProfitRoundsHalfUp(t *testing.T) {
	// 333 * 0.97 = 323.01, nets to 323
	sum := Totals([]Item{{Qty: 1, UnitPrice: 333}}, 0, 300)
	if sum.Profit != 323 {
		t.Fatalf("profit: expected 323, got %d", sum.Profit)
	}
	// 25 * 0.97 = 24.25 rounds down; 75 * 0.97 = 72.75 rounds up
	if got := Totals([]Item{{Qty: 1, UnitPrice: 25}}, 0, 300).Profit; got != 24 {
		t.Fatalf("profit: expected 24, got %d", got)
	}
	if got := Totals([]Item{{Qty: 1, UnitPrice: 75}}, 0, 300).Profit; got != 73 {
		t.Fatalf("profit: expected 73, got %d", got)
	}
}

func TestTotalsSkipsNonPositiveQuantities(t *testing.T) {
	sum := Totals([]Item{{Qty: 0, UnitPrice: 1000}, {Qty: -2, UnitPrice: 500}, {Qty: 1, UnitPrice: 100}}, 0, 0)
	if sum.Gross != 100 || sum.TotalQuantity != 1 {
		t.Fatalf("expected gross 100 qty 1, got gross %d qty %d", sum.Gross, sum.TotalQuantity)
	}
}
