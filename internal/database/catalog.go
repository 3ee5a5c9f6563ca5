package database

import (
	"context"
	"time"
)

const getMenuItem = `
SELECT code, name, base_price, available
FROM menu_items
WHERE code = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, code string) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, code)
	var i MenuItem
	err := row.Scan(&i.Code, &i.Name, &i.BasePrice, &i.Available)
	return i, err
}

const listMenuItems = `
SELECT code, name, base_price, available
FROM menu_items
ORDER BY code
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(&i.Code, &i.Name, &i.BasePrice, &i.Available); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getServingStyle = `
SELECT menu_code, code, price
FROM serving_styles
WHERE menu_code = $1 AND code = $2
`

type GetServingStyleParams struct {
	MenuCode string
	Code     string
}

func (q *Queries) GetServingStyle(ctx context.Context, arg GetServingStyleParams) (ServingStyle, error) {
	row := q.db.QueryRow(ctx, getServingStyle, arg.MenuCode, arg.Code)
	var i ServingStyle
	err := row.Scan(&i.MenuCode, &i.Code, &i.Price)
	return i, err
}

const listServingStylesByMenu = `
SELECT menu_code, code, price
FROM serving_styles
WHERE menu_code = $1
ORDER BY price
`

func (q *Queries) ListServingStylesByMenu(ctx context.Context, menuCode string) ([]ServingStyle, error) {
	rows, err := q.db.Query(ctx, listServingStylesByMenu, menuCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ServingStyle
	for rows.Next() {
		var i ServingStyle
		if err := rows.Scan(&i.MenuCode, &i.Code, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listStyleRecipe = `
SELECT ingredient_code, quantity
FROM style_recipes
WHERE menu_code = $1 AND style_code = $2
ORDER BY ingredient_code
`

type ListStyleRecipeParams struct {
	MenuCode  string
	StyleCode string
}

type RecipeRow struct {
	IngredientCode string
	Quantity       int32
}

func (q *Queries) ListStyleRecipe(ctx context.Context, arg ListStyleRecipeParams) ([]RecipeRow, error) {
	rows, err := q.db.Query(ctx, listStyleRecipe, arg.MenuCode, arg.StyleCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeRow
	for rows.Next() {
		var i RecipeRow
		if err := rows.Scan(&i.IngredientCode, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listIngredients = `
SELECT code, name, unit, unit_price
FROM ingredients
ORDER BY code
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Ingredient
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(&i.Code, &i.Name, &i.Unit, &i.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getSideDish = `
SELECT code, name, fixed_price
FROM side_dishes
WHERE code = $1
`

func (q *Queries) GetSideDish(ctx context.Context, code string) (SideDish, error) {
	row := q.db.QueryRow(ctx, getSideDish, code)
	var i SideDish
	err := row.Scan(&i.Code, &i.Name, &i.FixedPrice)
	return i, err
}

const listSideDishes = `
SELECT code, name, fixed_price
FROM side_dishes
ORDER BY code
`

func (q *Queries) ListSideDishes(ctx context.Context) ([]SideDish, error) {
	rows, err := q.db.Query(ctx, listSideDishes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SideDish
	for rows.Next() {
		var i SideDish
		if err := rows.Scan(&i.Code, &i.Name, &i.FixedPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listSideDishRecipe = `
SELECT ingredient_code, quantity
FROM side_dish_recipes
WHERE side_dish_code = $1
ORDER BY ingredient_code
`

func (q *Queries) ListSideDishRecipe(ctx context.Context, sideDishCode string) ([]RecipeRow, error) {
	rows, err := q.db.Query(ctx, listSideDishRecipe, sideDishCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeRow
	for rows.Next() {
		var i RecipeRow
		if err := rows.Scan(&i.IngredientCode, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getCakeVariant = `
SELECT flavor, size, price
FROM cake_variants
WHERE flavor = $1 AND size = $2
`

type GetCakeVariantParams struct {
	Flavor string
	Size   string
}

func (q *Queries) GetCakeVariant(ctx context.Context, arg GetCakeVariantParams) (CakeVariant, error) {
	row := q.db.QueryRow(ctx, getCakeVariant, arg.Flavor, arg.Size)
	var i CakeVariant
	err := row.Scan(&i.Flavor, &i.Size, &i.Price)
	return i, err
}

const listCakeVariants = `
SELECT flavor, size, price
FROM cake_variants
ORDER BY flavor, size
`

func (q *Queries) ListCakeVariants(ctx context.Context) ([]CakeVariant, error) {
	rows, err := q.db.Query(ctx, listCakeVariants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CakeVariant
	for rows.Next() {
		var i CakeVariant
		if err := rows.Scan(&i.Flavor, &i.Size, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listActiveEventDiscounts = `
SELECT d.id, d.promotion_id, d.target_type, d.target_code, d.discount_type, d.discount_value, d.priority
FROM event_discounts d
JOIN event_promotions p ON p.id = d.promotion_id
WHERE d.target_type = $1
  AND d.target_code = $2
  AND p.starts_at <= $3
  AND p.ends_at >= $3
ORDER BY d.priority, d.id
`

type ListActiveEventDiscountsParams struct {
	TargetType string
	TargetCode string
	At         time.Time
}

func (q *Queries) ListActiveEventDiscounts(ctx context.Context, arg ListActiveEventDiscountsParams) ([]EventDiscount, error) {
	rows, err := q.db.Query(ctx, listActiveEventDiscounts, arg.TargetType, arg.TargetCode, arg.At)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventDiscount
	for rows.Next() {
		var i EventDiscount
		if err := rows.Scan(&i.ID, &i.PromotionID, &i.TargetType, &i.TargetCode, &i.DiscountType, &i.DiscountValue, &i.Priority); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
