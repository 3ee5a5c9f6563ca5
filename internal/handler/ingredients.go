package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/dinnerhall/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// IngredientStore defines the database methods needed by stock handlers.
type IngredientStore interface {
	ListStoreStock(ctx context.Context, storeID uuid.UUID) ([]database.StoreStockRow, error)
	AddStock(ctx context.Context, arg database.AddStockParams) (database.StoreStock, error)
}

// IngredientHandler manages a store's ingredient stock. Mounted inside the
// store-scoped subrouter; restock is restricted to MANAGER in the router.
type IngredientHandler struct {
	store IngredientStore
}

func NewIngredientHandler(store IngredientStore) *IngredientHandler {
	return &IngredientHandler{store: store}
}

// RegisterRoutes registers stock endpoints on the given Chi router.
func (h *IngredientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListStock)
	r.Post("/{code}/restock", h.Restock)
}

type stockResponse struct {
	IngredientCode string `json:"ingredient_code"`
	Name           string `json:"name"`
	Unit           string `json:"unit"`
	OnHand         int32  `json:"on_hand"`
	Reserved       int64  `json:"reserved"`
	Available      int64  `json:"available"`
}

type restockRequest struct {
	Quantity int32 `json:"quantity"`
}

// ListStock handles GET /stores/{sid}/stock. Available is derived, never
// stored: on_hand minus open reservations.
func (h *IngredientHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	rows, err := h.store.ListStoreStock(r.Context(), storeID)
	if err != nil {
		log.Printf("ERROR: list store stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockResponse, len(rows))
	for i, row := range rows {
		resp[i] = stockResponse{
			IngredientCode: row.IngredientCode,
			Name:           row.Name,
			Unit:           row.Unit,
			OnHand:         row.OnHand,
			Reserved:       row.Reserved,
			Available:      int64(row.OnHand) - row.Reserved,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Restock handles POST /stores/{sid}/stock/{code}/restock.
func (h *IngredientHandler) Restock(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}
	code := chi.URLParam(r, "code")

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	stock, err := h.store.AddStock(r.Context(), database.AddStockParams{
		StoreID:        storeID,
		IngredientCode: code,
		Quantity:       req.Quantity,
	})
	if err != nil {
		log.Printf("ERROR: add stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ingredient_code": stock.IngredientCode,
		"on_hand":         stock.OnHand,
	})
}
