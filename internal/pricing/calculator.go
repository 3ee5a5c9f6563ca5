// Package pricing turns a cart and a catalog snapshot into an itemized
// price breakdown. Everything here is pure: no IO, no clock, no state.
package pricing

import (
	"github.com/dinnerhall/api/internal/catalog"
	"github.com/shopspring/decimal"
)

// SideDishSelection is one chosen side dish and how many of it.
type SideDishSelection struct {
	Code     string
	Quantity int32
}

// LineItem is a priced side-dish line.
type LineItem struct {
	Code      string
	Quantity  int32
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// CakeLine is the priced custom-cake line. A cart has at most one cake.
type CakeLine struct {
	Flavor    string
	Size      string
	UnitPrice decimal.Decimal
}

// Breakdown is the full pre-discount price of a cart.
type Breakdown struct {
	BasePriceTotal    decimal.Decimal
	CustomizationCost decimal.Decimal
	SideDishes        []LineItem
	SideDishCost      decimal.Decimal
	Cake              *CakeLine
	OriginalPrice     decimal.Decimal
}

// Calculate prices a cart against the snapshot.
//
// customizations maps ingredient code to the requested total quantity for
// the whole order, already multiplied by quantity. The delta against the
// base recipe is therefore requested − base_per_set × quantity; working
// with per-set quantities here would double-multiply.
//
// Only positive deltas are billed. Asking for less than the base recipe
// never reduces the price.
func Calculate(sn *catalog.Snapshot, quantity int32, customizations map[string]int32, sideDishes []SideDishSelection, includeCake bool) Breakdown {
	qty := decimal.NewFromInt32(quantity)

	b := Breakdown{
		BasePriceTotal:    sn.Style.Price.Mul(qty),
		CustomizationCost: decimal.Zero,
		SideDishCost:      decimal.Zero,
	}

	for code, requested := range customizations {
		baseTotal := sn.Style.Recipe[code] * quantity
		diff := requested - baseTotal
		if diff <= 0 {
			continue
		}
		ing, ok := sn.Ingredients[code]
		if !ok {
			continue
		}
		b.CustomizationCost = b.CustomizationCost.Add(ing.UnitPrice.Mul(decimal.NewFromInt32(diff)))
	}

	for _, sel := range sideDishes {
		sd, ok := sn.SideDishes[sel.Code]
		if !ok {
			continue
		}
		unit := sd.UnitPrice(sn.Ingredients)
		total := unit.Mul(decimal.NewFromInt32(sel.Quantity))
		b.SideDishes = append(b.SideDishes, LineItem{
			Code:      sel.Code,
			Quantity:  sel.Quantity,
			UnitPrice: unit,
			Total:     total,
		})
		b.SideDishCost = b.SideDishCost.Add(total)
	}

	cakeCost := decimal.Zero
	if includeCake {
		line := &CakeLine{UnitPrice: sn.CakeUnitPrice()}
		if sn.Cake != nil {
			line.Flavor = sn.Cake.Flavor
			line.Size = sn.Cake.Size
		}
		b.Cake = line
		cakeCost = line.UnitPrice
	}

	b.OriginalPrice = b.BasePriceTotal.
		Add(b.CustomizationCost).
		Add(b.SideDishCost).
		Add(cakeCost).
		Round(0)

	return b
}

// Requirements derives the ingredient totals an order will consume: the
// base recipe scaled by quantity with customization totals substituted in,
// plus side-dish recipes scaled by selection quantity, plus the generic
// cake recipe when a cake is included. Codes whose final total is zero or
// negative are dropped.
func Requirements(sn *catalog.Snapshot, quantity int32, customizations map[string]int32, sideDishes []SideDishSelection, includeCake bool) map[string]int32 {
	req := make(map[string]int32)

	for code, perSet := range sn.Style.Recipe {
		req[code] = perSet * quantity
	}
	for code, requested := range customizations {
		req[code] = requested
	}

	for _, sel := range sideDishes {
		sd, ok := sn.SideDishes[sel.Code]
		if !ok {
			continue
		}
		for code, per := range sd.Recipe {
			req[code] += per * sel.Quantity
		}
	}

	if includeCake && sn.GenericCake != nil {
		for code, per := range sn.GenericCake.Recipe {
			req[code] += per
		}
	}

	for code, qty := range req {
		if qty <= 0 {
			delete(req, code)
		}
	}
	return req
}
