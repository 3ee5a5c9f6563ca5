package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/dinnerhall/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// MenuStore defines the database methods needed by catalog read handlers.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, code string) (database.MenuItem, error)
	ListServingStylesByMenu(ctx context.Context, menuCode string) ([]database.ServingStyle, error)
	ListStyleRecipe(ctx context.Context, arg database.ListStyleRecipeParams) ([]database.RecipeRow, error)
	ListSideDishes(ctx context.Context) ([]database.SideDish, error)
	ListCakeVariants(ctx context.Context) ([]database.CakeVariant, error)
}

// MenuHandler serves the public catalog: menus, styles, side dishes, cakes.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menus", h.ListMenus)
	r.Get("/menus/{code}", h.GetMenu)
	r.Get("/side-dishes", h.ListSideDishes)
	r.Get("/cakes", h.ListCakes)
}

type menuResponse struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	BasePrice string `json:"base_price"`
	Available bool   `json:"available"`
}

type styleResponse struct {
	Code   string           `json:"code"`
	Price  string           `json:"price"`
	Recipe map[string]int32 `json:"recipe"`
}

type menuDetailResponse struct {
	menuResponse
	Styles []styleResponse `json:"styles"`
}

type sideDishResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	FixedPrice string `json:"fixed_price"`
}

type cakeVariantResponse struct {
	Flavor string `json:"flavor"`
	Size   string `json:"size"`
	Price  string `json:"price"`
}

// ListMenus handles GET /menus.
func (h *MenuHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menus: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuResponse, len(menus))
	for i, m := range menus {
		resp[i] = toMenuResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMenu handles GET /menus/{code} and includes styles with recipes.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	menu, err := h.store.GetMenuItem(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
			return
		}
		log.Printf("ERROR: get menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	styles, err := h.store.ListServingStylesByMenu(r.Context(), code)
	if err != nil {
		log.Printf("ERROR: list styles: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	detail := menuDetailResponse{menuResponse: toMenuResponse(menu)}
	for _, style := range styles {
		recipe, err := h.store.ListStyleRecipe(r.Context(), database.ListStyleRecipeParams{
			MenuCode:  code,
			StyleCode: style.Code,
		})
		if err != nil {
			log.Printf("ERROR: list style recipe: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		recipeMap := make(map[string]int32, len(recipe))
		for _, row := range recipe {
			recipeMap[row.IngredientCode] = row.Quantity
		}
		detail.Styles = append(detail.Styles, styleResponse{
			Code:   style.Code,
			Price:  numericToString(style.Price),
			Recipe: recipeMap,
		})
	}

	writeJSON(w, http.StatusOK, detail)
}

// ListSideDishes handles GET /side-dishes.
func (h *MenuHandler) ListSideDishes(w http.ResponseWriter, r *http.Request) {
	sides, err := h.store.ListSideDishes(r.Context())
	if err != nil {
		log.Printf("ERROR: list side dishes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]sideDishResponse, len(sides))
	for i, sd := range sides {
		resp[i] = sideDishResponse{
			Code:       sd.Code,
			Name:       sd.Name,
			FixedPrice: numericToString(sd.FixedPrice),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCakes handles GET /cakes.
func (h *MenuHandler) ListCakes(w http.ResponseWriter, r *http.Request) {
	cakes, err := h.store.ListCakeVariants(r.Context())
	if err != nil {
		log.Printf("ERROR: list cake variants: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cakeVariantResponse, len(cakes))
	for i, c := range cakes {
		resp[i] = cakeVariantResponse{
			Flavor: c.Flavor,
			Size:   c.Size,
			Price:  numericToString(c.Price),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func toMenuResponse(m database.MenuItem) menuResponse {
	return menuResponse{
		Code:      m.Code,
		Name:      m.Name,
		BasePrice: numericToString(m.BasePrice),
		Available: m.Available,
	}
}
