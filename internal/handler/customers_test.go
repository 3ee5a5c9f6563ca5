package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/handler"
	"github.com/dinnerhall/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type mockCustomerStore struct {
	getCustomerFn func(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

func (m *mockCustomerStore) GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	if m.getCustomerFn != nil {
		return m.getCustomerFn(ctx, id)
	}
	return database.Customer{}, pgx.ErrNoRows
}

func setupCustomerRouter(store *mockCustomerStore) *chi.Mux {
	h := handler.NewCustomerHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func testCustomer(t *testing.T, id uuid.UUID) database.Customer {
	t.Helper()
	return database.Customer{
		ID:           id,
		Name:         "Dewi",
		Email:        "dewi@example.test",
		OrderCount:   7,
		TotalSpent:   testNumeric(t, "350000"),
		VipLevel:     2,
		DiscountRate: testNumeric(t, "0.1"),
		LastOrderAt:  pgtype.Timestamptz{Time: time.Date(2026, 2, 14, 19, 30, 0, 0, time.UTC), Valid: true},
	}
}

func TestGetCustomer_Manager(t *testing.T) {
	customerID := uuid.New()
	store := &mockCustomerStore{
		getCustomerFn: func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
			if id != customerID {
				return database.Customer{}, pgx.ErrNoRows
			}
			return testCustomer(t, id), nil
		},
	}
	router := setupCustomerRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/customers/"+customerID.String(), nil, staffClaims(uuid.New(), enum.RoleManager))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["order_count"] != float64(7) {
		t.Errorf("expected order_count 7, got %v", resp["order_count"])
	}
	if resp["discount_rate"] != "0.1" {
		t.Errorf("expected discount_rate 0.1, got %v", resp["discount_rate"])
	}
	if resp["last_order_at"] == nil {
		t.Error("expected last_order_at to be set")
	}
}

func TestGetCustomer_CustomerReadsOwnAccount(t *testing.T) {
	customerID := uuid.New()
	store := &mockCustomerStore{
		getCustomerFn: func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
			return testCustomer(t, id), nil
		},
	}
	router := setupCustomerRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/customers/"+customerID.String(), nil, customerClaims(customerID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for own account, got %d", rr.Code)
	}

	rr = doAuthRequest(t, router, http.MethodGet, "/customers/"+uuid.New().String(), nil, customerClaims(customerID))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for someone else's account, got %d", rr.Code)
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	router := setupCustomerRouter(&mockCustomerStore{})

	rr := doAuthRequest(t, router, http.MethodGet, "/customers/"+uuid.New().String(), nil, staffClaims(uuid.New(), enum.RoleManager))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
