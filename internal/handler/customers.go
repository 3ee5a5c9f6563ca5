package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CustomerStore defines the database methods needed by customer handlers.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// CustomerHandler serves loyalty state reads.
type CustomerHandler struct {
	store CustomerStore
}

func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// RegisterRoutes registers customer endpoints on the given Chi router.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers/{id}", h.Get)
}

type customerResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	OrderCount   int32      `json:"order_count"`
	TotalSpent   string     `json:"total_spent"`
	VipLevel     int32      `json:"vip_level"`
	DiscountRate string     `json:"discount_rate"`
	LastOrderAt  *time.Time `json:"last_order_at"`
}

// Get handles GET /customers/{id}. Customers can only read their own
// loyalty state; managers can read anyone's.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	if claims.Role == enum.RoleCustomer && claims.UserID != id {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your account"})
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: get customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := customerResponse{
		ID:           customer.ID,
		Name:         customer.Name,
		Email:        customer.Email,
		OrderCount:   customer.OrderCount,
		TotalSpent:   numericToString(customer.TotalSpent),
		VipLevel:     customer.VipLevel,
		DiscountRate: numericToString(customer.DiscountRate),
	}
	if customer.LastOrderAt.Valid {
		t := customer.LastOrderAt.Time
		resp.LastOrderAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}
