package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinnerhall/api/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned while resolving a cart against the catalog. All of them
// are rejected before any side effect runs.
var (
	ErrMenuNotFound       = errors.New("menu item not found")
	ErrMenuUnavailable    = errors.New("menu item not available")
	ErrStyleNotFound      = errors.New("serving style not found")
	ErrSideDishNotFound   = errors.New("side dish not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
)

// Store defines the DB methods the loader needs.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	GetMenuItem(ctx context.Context, code string) (database.MenuItem, error)
	GetServingStyle(ctx context.Context, arg database.GetServingStyleParams) (database.ServingStyle, error)
	ListStyleRecipe(ctx context.Context, arg database.ListStyleRecipeParams) ([]database.RecipeRow, error)
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	GetSideDish(ctx context.Context, code string) (database.SideDish, error)
	ListSideDishRecipe(ctx context.Context, sideDishCode string) ([]database.RecipeRow, error)
	GetCakeVariant(ctx context.Context, arg database.GetCakeVariantParams) (database.CakeVariant, error)
}

// CakeSelection identifies a custom cake by flavor and size.
type CakeSelection struct {
	Flavor string
	Size   string
}

// Load assembles the Snapshot for one cart. Unknown codes surface as the
// sentinel errors above; a cake selection with no configured variant is
// not an error (pricing falls back to the generic cake).
func Load(ctx context.Context, store Store, menuCode, styleCode string, sideDishCodes []string, cake *CakeSelection, customizationCodes []string) (*Snapshot, error) {
	menu, err := store.GetMenuItem(ctx, menuCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMenuNotFound, menuCode)
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if !menu.Available {
		return nil, fmt.Errorf("%w: %s", ErrMenuUnavailable, menuCode)
	}

	style, err := store.GetServingStyle(ctx, database.GetServingStyleParams{
		MenuCode: menuCode,
		Code:     styleCode,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrStyleNotFound, menuCode, styleCode)
		}
		return nil, fmt.Errorf("get serving style: %w", err)
	}

	recipe, err := store.ListStyleRecipe(ctx, database.ListStyleRecipeParams{
		MenuCode:  menuCode,
		StyleCode: styleCode,
	})
	if err != nil {
		return nil, fmt.Errorf("list style recipe: %w", err)
	}

	ingredientRows, err := store.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	ingredients := make(map[string]Ingredient, len(ingredientRows))
	for _, row := range ingredientRows {
		ingredients[row.Code] = Ingredient{
			Code:      row.Code,
			Name:      row.Name,
			Unit:      row.Unit,
			UnitPrice: numericToDecimal(row.UnitPrice),
		}
	}

	for _, code := range customizationCodes {
		if _, ok := ingredients[code]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrIngredientNotFound, code)
		}
	}

	sn := &Snapshot{
		Menu: MenuItem{
			Code:      menu.Code,
			Name:      menu.Name,
			BasePrice: numericToDecimal(menu.BasePrice),
			Available: menu.Available,
		},
		Style: ServingStyle{
			Code:   style.Code,
			Price:  numericToDecimal(style.Price),
			Recipe: recipeMap(recipe),
		},
		Ingredients: ingredients,
		SideDishes:  make(map[string]SideDish),
	}

	for _, code := range sideDishCodes {
		if _, ok := sn.SideDishes[code]; ok {
			continue
		}
		sd, err := loadSideDish(ctx, store, code)
		if err != nil {
			return nil, err
		}
		sn.SideDishes[code] = sd
	}

	if cake != nil {
		variant, err := store.GetCakeVariant(ctx, database.GetCakeVariantParams{
			Flavor: cake.Flavor,
			Size:   cake.Size,
		})
		switch {
		case err == nil:
			sn.Cake = &CakeVariant{
				Flavor: variant.Flavor,
				Size:   variant.Size,
				Price:  numericToDecimal(variant.Price),
			}
		case errors.Is(err, pgx.ErrNoRows):
			// fall through to the generic cake below
		default:
			return nil, fmt.Errorf("get cake variant: %w", err)
		}

		generic, err := loadSideDish(ctx, store, GenericCakeCode)
		if err != nil {
			if !errors.Is(err, ErrSideDishNotFound) {
				return nil, err
			}
		} else {
			sn.GenericCake = &generic
		}
	}

	return sn, nil
}

func loadSideDish(ctx context.Context, store Store, code string) (SideDish, error) {
	row, err := store.GetSideDish(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SideDish{}, fmt.Errorf("%w: %s", ErrSideDishNotFound, code)
		}
		return SideDish{}, fmt.Errorf("get side dish: %w", err)
	}
	recipe, err := store.ListSideDishRecipe(ctx, code)
	if err != nil {
		return SideDish{}, fmt.Errorf("list side dish recipe: %w", err)
	}
	return SideDish{
		Code:       row.Code,
		Name:       row.Name,
		FixedPrice: numericToDecimal(row.FixedPrice),
		Recipe:     recipeMap(recipe),
	}, nil
}

func recipeMap(rows []database.RecipeRow) map[string]int32 {
	m := make(map[string]int32, len(rows))
	for _, r := range rows {
		m[r.IngredientCode] = r.Quantity
	}
	return m
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
