package pricing

import "testing"

func money(v Money) *Money { return &v }

func limit(v int32) *int32 { return &v }

func TestUnitPriceSingleTier(t *testing.T) {
	table := TierTable{Tier1: 1000}
	for _, qty := range []int{1, 10, 1000} {
		if got := table.UnitPrice(qty); got != 1000 {
			t.Fatalf("qty %d: expected 1000, got %d", qty, got)
		}
	}
}

func TestUnitPriceTierBoundaries(t *testing.T) {
	table := TierTable{
		Tier1:  1000,
		Tier2:  money(800),
		Tier3:  money(600),
		Limit1: limit(5),
		Limit2: limit(20),
	}
	cases := []struct {
		qty  int
		want Money
	}{
		{1, 1000},
		{5, 1000}, // equal to limit stays in lower tier
		{6, 800},
		{20, 800},
		{21, 600},
		{500, 600},
	}
	for _, tc := range cases {
		if got := table.UnitPrice(tc.qty); got != tc.want {
			t.Fatalf("qty %d: expected %d, got %d", tc.qty, tc.want, got)
		}
	}
}

func TestUnitPriceMissingTierNeverEscalates(t *testing.T) {
	table := TierTable{
		Tier1:  1000,
		Tier2:  money(800),
		Limit1: limit(5),
	}
	if got := table.UnitPrice(1_000_000); got != 800 {
		t.Fatalf("expected tier 2 price 800, got %d", got)
	}

	// Tier price without its gating limit must not apply either.
	table = TierTable{Tier1: 1000, Tier2: money(800)}
	if got := table.UnitPrice(1_000_000); got != 1000 {
		t.Fatalf("expected tier 1 price 1000, got %d", got)
	}
}
