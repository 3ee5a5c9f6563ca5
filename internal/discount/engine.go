// Package discount applies event promotions and the loyalty discount to a
// priced order. Like pricing, it is pure: callers load the applicable
// rules (pre-sorted by priority) and the loyalty rate, the engine only
// folds them.
package discount

import (
	"github.com/dinnerhall/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rule is one event discount scoped to a single pricing target.
type Rule struct {
	ID         uuid.UUID
	TargetType string // enum.DiscountTargetMenu or enum.DiscountTargetSideDish
	TargetCode string
	Type       string // enum.DiscountTypePercent or enum.DiscountTypeFixed
	Value      decimal.Decimal
	Priority   int32
}

// Target is one independently discounted amount: the menu line or a single
// side dish (the custom cake counts as a side dish). Rules must already be
// in application order; the engine never reorders them.
type Target struct {
	Type       string
	Code       string
	BaseAmount decimal.Decimal
	Quantity   int32
	Rules      []Rule
}

// Applied is one ledger entry: a rule and the amount it actually took off.
type Applied struct {
	Rule   Rule
	Target Target
	Amount decimal.Decimal
}

// Result is the discounted price with its full audit ledger.
type Result struct {
	OriginalPrice   decimal.Decimal
	EventDiscount   decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	FinalPrice      decimal.Decimal
	Ledger          []Applied
	// Skipped collects misconfigured rules (non-positive value, unknown
	// type). They are not fatal; the caller is expected to log them back
	// to whoever owns the promotion.
	Skipped []Rule
}

// Apply runs every target's rule sequence and the loyalty rate against the
// order.
//
// Per target, each rule sees the target's base amount (PERCENT) or its
// value times the order quantity (FIXED), clamped to what is still left of
// that target. One target's rules can never eat into another target's
// amount.
//
// The loyalty discount is intentionally computed on the pre-event-discount
// original price, so event and loyalty discounts do not compound; combined
// they can exceed the original price, and the final price floors at zero.
func Apply(originalPrice decimal.Decimal, targets []Target, loyaltyRate decimal.Decimal) Result {
	res := Result{
		OriginalPrice:   originalPrice,
		EventDiscount:   decimal.Zero,
		LoyaltyDiscount: decimal.Zero,
	}

	for _, target := range targets {
		remaining := target.BaseAmount.Round(0)
		for _, rule := range target.Rules {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}

			calculated, ok := calculate(rule, target)
			if !ok {
				res.Skipped = append(res.Skipped, rule)
				continue
			}

			applied := decimal.Min(calculated, remaining)
			if applied.LessThanOrEqual(decimal.Zero) {
				continue
			}

			res.Ledger = append(res.Ledger, Applied{Rule: rule, Target: target, Amount: applied})
			res.EventDiscount = res.EventDiscount.Add(applied)
			remaining = remaining.Sub(applied)
		}
	}

	if loyaltyRate.IsPositive() {
		res.LoyaltyDiscount = originalPrice.Mul(loyaltyRate).Round(0)
	}

	res.FinalPrice = originalPrice.Sub(res.EventDiscount).Sub(res.LoyaltyDiscount)
	if res.FinalPrice.IsNegative() {
		res.FinalPrice = decimal.Zero
	}
	return res
}

func calculate(rule Rule, target Target) (decimal.Decimal, bool) {
	if !rule.Value.IsPositive() {
		return decimal.Zero, false
	}
	switch rule.Type {
	case enum.DiscountTypePercent:
		return target.BaseAmount.Mul(rule.Value).Div(decimal.NewFromInt(100)).Round(0), true
	case enum.DiscountTypeFixed:
		return rule.Value.Mul(decimal.NewFromInt32(target.Quantity)).Round(0), true
	}
	return decimal.Zero, false
}
