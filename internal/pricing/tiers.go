package pricing

// TierTable maps a cumulative cart quantity to a unit price. Tier 1 is
// mandatory; tiers 2 and 3 apply only when both the tier price and the
// quantity limit gating it are configured.
type TierTable struct {
	Tier1  Money
	Tier2  *Money
	Tier3  *Money
	Limit1 *int32
	Limit2 *int32
}

// UnitPrice returns the price bracket unlocked by the cart's total
// quantity. A quantity exactly equal to a limit stays in the lower tier.
// Missing optional tiers or limits never escalate.
func (t TierTable) UnitPrice(totalQty int) Money {
	if t.Tier3 != nil && t.Limit2 != nil && totalQty > int(*t.Limit2) {
		return *t.Tier3
	}
	if t.Tier2 != nil && t.Limit1 != nil && totalQty > int(*t.Limit1) {
		return *t.Tier2
	}
	return t.Tier1
}
