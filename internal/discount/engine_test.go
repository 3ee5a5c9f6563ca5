package discount

import (
	"testing"

	"github.com/dinnerhall/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func percentRule(code string, value int64, priority int32) Rule {
	return Rule{
		ID:         uuid.New(),
		TargetType: enum.DiscountTargetMenu,
		TargetCode: code,
		Type:       enum.DiscountTypePercent,
		Value:      dec(value),
		Priority:   priority,
	}
}

func fixedRule(code string, value int64, priority int32) Rule {
	return Rule{
		ID:         uuid.New(),
		TargetType: enum.DiscountTargetMenu,
		TargetCode: code,
		Type:       enum.DiscountTypeFixed,
		Value:      dec(value),
		Priority:   priority,
	}
}

func TestApply_SequentialPercentThenFixed(t *testing.T) {
	// Two sets of the valentine dinner at 30000 each. 20% of 60000 takes
	// 12000, then the fixed 5000 rule applies per set: 10000 against the
	// 48000 still remaining.
	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(60000),
		Quantity:   2,
		Rules: []Rule{
			percentRule("valentine", 20, 1),
			fixedRule("valentine", 5000, 2),
		},
	}

	res := Apply(dec(78000), []Target{target}, decimal.Zero)

	if !res.EventDiscount.Equal(dec(22000)) {
		t.Errorf("event discount: got %v, want 22000", res.EventDiscount)
	}
	if len(res.Ledger) != 2 {
		t.Fatalf("ledger entries: got %d, want 2", len(res.Ledger))
	}
	if !res.Ledger[0].Amount.Equal(dec(12000)) {
		t.Errorf("first applied amount: got %v, want 12000", res.Ledger[0].Amount)
	}
	if !res.Ledger[1].Amount.Equal(dec(10000)) {
		t.Errorf("second applied amount: got %v, want 10000", res.Ledger[1].Amount)
	}
	if !res.FinalPrice.Equal(dec(56000)) {
		t.Errorf("final price: got %v, want 56000", res.FinalPrice)
	}
}

func TestApply_LoyaltyOnOriginalPrice(t *testing.T) {
	// The loyalty rate applies to the pre-event original price, not to
	// what the event rules left over: 10% of 78000 is 7800 even though
	// events already took 22000.
	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(60000),
		Quantity:   2,
		Rules: []Rule{
			percentRule("valentine", 20, 1),
			fixedRule("valentine", 5000, 2),
		},
	}

	res := Apply(dec(78000), []Target{target}, decimal.NewFromFloat(0.1))

	if !res.LoyaltyDiscount.Equal(dec(7800)) {
		t.Errorf("loyalty discount: got %v, want 7800", res.LoyaltyDiscount)
	}
	if !res.FinalPrice.Equal(dec(48200)) {
		t.Errorf("final price: got %v, want 48200", res.FinalPrice)
	}
}

func TestApply_ClampsToRemaining(t *testing.T) {
	// 90% then 50%: the second rule computes 5000 but only 1000 of the
	// target is left.
	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(10000),
		Quantity:   1,
		Rules: []Rule{
			percentRule("valentine", 90, 1),
			percentRule("valentine", 50, 2),
		},
	}

	res := Apply(dec(10000), []Target{target}, decimal.Zero)

	if !res.EventDiscount.Equal(dec(10000)) {
		t.Errorf("event discount: got %v, want 10000", res.EventDiscount)
	}
	if !res.Ledger[1].Amount.Equal(dec(1000)) {
		t.Errorf("clamped amount: got %v, want 1000", res.Ledger[1].Amount)
	}
	if !res.FinalPrice.Equal(dec(0)) {
		t.Errorf("final price: got %v, want 0", res.FinalPrice)
	}
}

func TestApply_ExhaustedTargetStopsRules(t *testing.T) {
	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(10000),
		Quantity:   1,
		Rules: []Rule{
			percentRule("valentine", 100, 1),
			fixedRule("valentine", 5000, 2),
			fixedRule("valentine", 3000, 3),
		},
	}

	res := Apply(dec(10000), []Target{target}, decimal.Zero)

	if len(res.Ledger) != 1 {
		t.Errorf("ledger entries: got %d, want 1 (later rules skipped once exhausted)", len(res.Ledger))
	}
}

func TestApply_TargetsAreIndependent(t *testing.T) {
	// The side dish's 100% rule drains only the side dish amount; the
	// menu target's rule still sees its full base.
	menu := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(30000),
		Quantity:   1,
		Rules:      []Rule{percentRule("valentine", 10, 1)},
	}
	side := Target{
		Type:       enum.DiscountTargetSideDish,
		Code:       "garlic_bread",
		BaseAmount: dec(4000),
		Quantity:   1,
		Rules: []Rule{{
			ID:         uuid.New(),
			TargetType: enum.DiscountTargetSideDish,
			TargetCode: "garlic_bread",
			Type:       enum.DiscountTypePercent,
			Value:      dec(100),
			Priority:   1,
		}},
	}

	res := Apply(dec(34000), []Target{menu, side}, decimal.Zero)

	if !res.EventDiscount.Equal(dec(7000)) {
		t.Errorf("event discount: got %v, want 7000 (3000 menu + 4000 side)", res.EventDiscount)
	}
}

func TestApply_FixedScalesWithQuantity(t *testing.T) {
	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(90000),
		Quantity:   3,
		Rules:      []Rule{fixedRule("valentine", 2000, 1)},
	}

	res := Apply(dec(90000), []Target{target}, decimal.Zero)

	if !res.EventDiscount.Equal(dec(6000)) {
		t.Errorf("event discount: got %v, want 6000", res.EventDiscount)
	}
}

func TestApply_MisconfiguredRulesAreSkippedNotFatal(t *testing.T) {
	bad := Rule{
		ID:         uuid.New(),
		TargetType: enum.DiscountTargetMenu,
		TargetCode: "valentine",
		Type:       "BOGOF",
		Value:      dec(10),
		Priority:   1,
	}
	zero := percentRule("valentine", 0, 2)
	good := percentRule("valentine", 10, 3)

	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(10000),
		Quantity:   1,
		Rules:      []Rule{bad, zero, good},
	}

	res := Apply(dec(10000), []Target{target}, decimal.Zero)

	if len(res.Skipped) != 2 {
		t.Errorf("skipped rules: got %d, want 2", len(res.Skipped))
	}
	if !res.EventDiscount.Equal(dec(1000)) {
		t.Errorf("event discount: got %v, want 1000", res.EventDiscount)
	}
}

func TestApply_FinalPriceFloorsAtZero(t *testing.T) {
	// Event discount takes everything, loyalty would push the total
	// negative.
	target := Target{
		Type:       enum.DiscountTargetMenu,
		Code:       "valentine",
		BaseAmount: dec(10000),
		Quantity:   1,
		Rules:      []Rule{percentRule("valentine", 100, 1)},
	}

	res := Apply(dec(10000), []Target{target}, decimal.NewFromFloat(0.2))

	if !res.FinalPrice.Equal(dec(0)) {
		t.Errorf("final price: got %v, want 0", res.FinalPrice)
	}
	if !res.LoyaltyDiscount.Equal(dec(2000)) {
		t.Errorf("loyalty discount still recorded: got %v, want 2000", res.LoyaltyDiscount)
	}
}

func TestApply_NoRulesNoLoyalty(t *testing.T) {
	res := Apply(dec(50000), nil, decimal.Zero)

	if !res.FinalPrice.Equal(dec(50000)) {
		t.Errorf("final price: got %v, want 50000", res.FinalPrice)
	}
	if len(res.Ledger) != 0 || len(res.Skipped) != 0 {
		t.Errorf("expected empty ledger, got %+v / %+v", res.Ledger, res.Skipped)
	}
}
