package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/handler"
	"github.com/dinnerhall/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type mockIngredientStore struct {
	listStoreStockFn func(ctx context.Context, storeID uuid.UUID) ([]database.StoreStockRow, error)
	addStockFn       func(ctx context.Context, arg database.AddStockParams) (database.StoreStock, error)
}

func (m *mockIngredientStore) ListStoreStock(ctx context.Context, storeID uuid.UUID) ([]database.StoreStockRow, error) {
	if m.listStoreStockFn != nil {
		return m.listStoreStockFn(ctx, storeID)
	}
	return nil, nil
}

func (m *mockIngredientStore) AddStock(ctx context.Context, arg database.AddStockParams) (database.StoreStock, error) {
	if m.addStockFn != nil {
		return m.addStockFn(ctx, arg)
	}
	return database.StoreStock{}, nil
}

func setupStockRouter(store *mockIngredientStore) *chi.Mux {
	h := handler.NewIngredientHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/stores/{sid}/stock", h.RegisterRoutes)
	return r
}

func TestListStock_DerivesAvailable(t *testing.T) {
	storeID := uuid.New()
	store := &mockIngredientStore{
		listStoreStockFn: func(ctx context.Context, sID uuid.UUID) ([]database.StoreStockRow, error) {
			if sID != storeID {
				t.Errorf("expected store ID %s, got %s", storeID, sID)
			}
			return []database.StoreStockRow{
				{IngredientCode: "premium_steak", Name: "Premium Steak", Unit: "pcs", OnHand: 10, Reserved: 3},
				{IngredientCode: "red_wine", Name: "Red Wine", Unit: "bottle", OnHand: 2, Reserved: 5},
			}, nil
		},
	}
	router := setupStockRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/stores/"+storeID.String()+"/stock", nil, staffClaims(storeID, enum.RoleManager))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp))
	}
	if resp[0]["available"] != float64(7) {
		t.Errorf("expected available 7, got %v", resp[0]["available"])
	}
	// Oversold rows still report the raw difference.
	if resp[1]["available"] != float64(-3) {
		t.Errorf("expected available -3, got %v", resp[1]["available"])
	}
}

func TestRestock_Success(t *testing.T) {
	storeID := uuid.New()
	var gotArg database.AddStockParams
	store := &mockIngredientStore{
		addStockFn: func(ctx context.Context, arg database.AddStockParams) (database.StoreStock, error) {
			gotArg = arg
			return database.StoreStock{StoreID: arg.StoreID, IngredientCode: arg.IngredientCode, OnHand: 25}, nil
		},
	}
	router := setupStockRouter(store)

	body := map[string]int32{"quantity": 15}
	rr := doAuthRequest(t, router, http.MethodPost, "/stores/"+storeID.String()+"/stock/premium_steak/restock", body, staffClaims(storeID, enum.RoleManager))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotArg.IngredientCode != "premium_steak" || gotArg.Quantity != 15 {
		t.Errorf("unexpected add stock params: %+v", gotArg)
	}

	resp := decodeBody(t, rr)
	if resp["on_hand"] != float64(25) {
		t.Errorf("expected on_hand 25, got %v", resp["on_hand"])
	}
}

func TestRestock_RejectsNonPositiveQuantity(t *testing.T) {
	storeID := uuid.New()
	store := &mockIngredientStore{
		addStockFn: func(ctx context.Context, arg database.AddStockParams) (database.StoreStock, error) {
			t.Fatal("store should not be called")
			return database.StoreStock{}, nil
		},
	}
	router := setupStockRouter(store)

	for _, qty := range []int32{0, -5} {
		body := map[string]int32{"quantity": qty}
		rr := doAuthRequest(t, router, http.MethodPost, "/stores/"+storeID.String()+"/stock/premium_steak/restock", body, staffClaims(storeID, enum.RoleManager))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for quantity %d, got %d", qty, rr.Code)
		}
	}
}
