// Package catalog is the read-only menu data the pricing core runs against.
// A Snapshot is assembled once per request and never mutated afterwards, so
// price calculation stays deterministic for the life of that request.
package catalog

import (
	"github.com/shopspring/decimal"
)

// GenericCakeCode is the side dish that prices a custom cake when no
// (flavor, size) variant is configured.
const GenericCakeCode = "custom_cake"

type MenuItem struct {
	Code      string
	Name      string
	BasePrice decimal.Decimal
	Available bool
}

// ServingStyle is a presentation tier of one menu item. Price is the
// per-set price at this tier; Recipe maps ingredient code to the quantity
// one set includes.
type ServingStyle struct {
	Code   string
	Price  decimal.Decimal
	Recipe map[string]int32
}

type Ingredient struct {
	Code      string
	Name      string
	Unit      string
	UnitPrice decimal.Decimal
}

// SideDish has either a configured fixed price or, when FixedPrice is not
// positive, a price derived from its recipe (see UnitPrice).
type SideDish struct {
	Code       string
	Name       string
	FixedPrice decimal.Decimal
	Recipe     map[string]int32
}

type CakeVariant struct {
	Flavor string
	Size   string
	Price  decimal.Decimal
}

// Snapshot holds everything one cart needs: the chosen menu and style, the
// selected side dishes, the cake variant if one applies, and the unit
// prices of every ingredient any of those recipes mention.
type Snapshot struct {
	Menu        MenuItem
	Style       ServingStyle
	Ingredients map[string]Ingredient
	SideDishes  map[string]SideDish
	Cake        *CakeVariant
	GenericCake *SideDish
}

// UnitPrice resolves a side dish's price: the fixed price when positive,
// otherwise the rounded ingredient-cost sum, never negative.
func (s SideDish) UnitPrice(ingredients map[string]Ingredient) decimal.Decimal {
	if s.FixedPrice.IsPositive() {
		return s.FixedPrice
	}
	sum := decimal.Zero
	for code, qty := range s.Recipe {
		ing, ok := ingredients[code]
		if !ok {
			continue
		}
		sum = sum.Add(ing.UnitPrice.Mul(decimal.NewFromInt32(qty)))
	}
	sum = sum.Round(0)
	if sum.IsNegative() {
		return decimal.Zero
	}
	return sum
}

// CakeUnitPrice resolves the custom cake price: the (flavor, size) variant
// price when the snapshot carries one, else the generic cake's derived
// price.
func (sn *Snapshot) CakeUnitPrice() decimal.Decimal {
	if sn.Cake != nil && sn.Cake.Price.IsPositive() {
		return sn.Cake.Price
	}
	if sn.GenericCake != nil {
		return sn.GenericCake.UnitPrice(sn.Ingredients)
	}
	return decimal.Zero
}
