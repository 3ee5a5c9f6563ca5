//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dinnerhall/api/internal/config"
	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/router"
	"github.com/dinnerhall/api/internal/ws"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full order lifecycle against a real
// PostgreSQL database: checkout with customizations and discounts, stock
// reservation, status transitions through completion, loyalty accrual,
// and a declined-card checkout.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8082",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown mechanism.
	// Acceptable for tests; production should add context-based shutdown.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Seed store, staff, catalog, promotion, customer via direct inserts ---
	storeID := seedStore(t, ctx, pool)
	seedStaff(t, ctx, pool, storeID)
	seedCatalog(t, ctx, pool, storeID)
	customerID := seedCustomer(t, ctx, pool)

	// --- 2. Staff login ---
	managerToken := login(t, server, "manager@test.com", "password123")
	cookToken := login(t, server, "cook@test.com", "password123")
	deliveryToken := login(t, server, "delivery@test.com", "password123")

	// --- 3. Public catalog ---
	menus := httpGetList(t, server, "/menus", "")
	if len(menus) != 1 {
		t.Fatalf("expected 1 menu, got %d", len(menus))
	}

	// --- 4. Customer token ---
	customerToken := customerLogin(t, server, customerID)

	// --- 5. Checkout: 2 valentine simple sets, steak bumped from 2 to 3 ---
	// Base: 30000 * 2 = 60000. Extra steak: 18000 → original 78000.
	// Event: 20% of base (12000) + 5000 * qty (10000) = 22000.
	// Loyalty: 10% of 78000 = 7800. Final: 48200.
	orderResp := checkout(t, server, storeID, customerToken, map[string]interface{}{
		"menu_code":  "valentine_dinner",
		"style_code": "simple",
		"quantity":   2,
		"customizations": map[string]int{
			"premium_steak": 3,
		},
		"card": map[string]interface{}{
			"number":    "4242424242424242",
			"exp_month": 12,
			"exp_year":  time.Now().Year() + 2,
			"cvv":       "123",
		},
	}, http.StatusCreated)

	orderID := uuid.MustParse(orderResp["id"].(string))
	if got := orderResp["original_price"].(string); got != "78000" {
		t.Fatalf("original_price: got %s, want 78000", got)
	}
	if got := orderResp["event_discount"].(string); got != "22000" {
		t.Fatalf("event_discount: got %s, want 22000", got)
	}
	if got := orderResp["loyalty_discount"].(string); got != "7800" {
		t.Fatalf("loyalty_discount: got %s, want 7800", got)
	}
	if got := orderResp["total_price"].(string); got != "48200" {
		t.Fatalf("total_price: got %s, want 48200", got)
	}
	if got := orderResp["status"].(string); got != "RECEIVED" {
		t.Fatalf("status: got %s, want RECEIVED", got)
	}

	// --- 6. Stock reflects the reservation: 100 on hand, 3 steak reserved ---
	stock := httpGetList(t, server, fmt.Sprintf("/stores/%s/stock", storeID), managerToken)
	steak := findStock(t, stock, "premium_steak")
	if steak["reserved"].(float64) != 3 || steak["available"].(float64) != 97 {
		t.Fatalf("steak stock: got reserved=%v available=%v, want 3/97", steak["reserved"], steak["available"])
	}

	// --- 7. Cook prepares and hands off, delivery completes ---
	updateStatus(t, server, storeID, orderID, "PREPARING", cookToken, http.StatusOK)
	updateStatus(t, server, storeID, orderID, "DELIVERING", cookToken, http.StatusOK)
	// Cook cannot complete.
	updateStatus(t, server, storeID, orderID, "COMPLETED", cookToken, http.StatusForbidden)
	updateStatus(t, server, storeID, orderID, "COMPLETED", deliveryToken, http.StatusOK)

	// --- 8. Completion consumed the reservation and drew down stock ---
	stock = httpGetList(t, server, fmt.Sprintf("/stores/%s/stock", storeID), managerToken)
	steak = findStock(t, stock, "premium_steak")
	if steak["on_hand"].(float64) != 97 || steak["reserved"].(float64) != 0 {
		t.Fatalf("steak stock after completion: got on_hand=%v reserved=%v, want 97/0", steak["on_hand"], steak["reserved"])
	}

	// --- 9. Loyalty accrued on the paid total ---
	customer := httpGetJSON(t, server, fmt.Sprintf("/customers/%s", customerID), managerToken)
	if customer["order_count"].(float64) != 1 {
		t.Fatalf("customer order_count: got %v, want 1", customer["order_count"])
	}
	if customer["total_spent"].(string) != "48200" {
		t.Fatalf("customer total_spent: got %v, want 48200", customer["total_spent"])
	}

	// --- 10. Completed orders cannot be cancelled ---
	req, _ := http.NewRequest("DELETE", server.URL+fmt.Sprintf("/stores/%s/orders/%s", storeID, orderID), nil)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("cancel request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("cancel completed order: got %d, want 409", resp.StatusCode)
	}

	// --- 11. Declined card persists a PAYMENT_FAILED order without reservations ---
	declined := checkout(t, server, storeID, customerToken, map[string]interface{}{
		"menu_code":  "valentine_dinner",
		"style_code": "simple",
		"quantity":   1,
		"card": map[string]interface{}{
			"number":    "4000000000000002",
			"exp_month": 12,
			"exp_year":  time.Now().Year() + 2,
			"cvv":       "123",
		},
	}, http.StatusPaymentRequired)
	if got := declined["status"].(string); got != "PAYMENT_FAILED" {
		t.Fatalf("declined order status: got %s, want PAYMENT_FAILED", got)
	}
	stock = httpGetList(t, server, fmt.Sprintf("/stores/%s/stock", storeID), managerToken)
	steak = findStock(t, stock, "premium_steak")
	if steak["reserved"].(float64) != 0 {
		t.Fatalf("declined order reserved stock: got %v, want 0", steak["reserved"])
	}

	// --- 12. Manager restocks ---
	restockResp := httpPostJSON(t, server,
		fmt.Sprintf("/stores/%s/stock/premium_steak/restock", storeID),
		map[string]interface{}{"quantity": 10}, managerToken)
	if restockResp["on_hand"].(float64) != 107 {
		t.Fatalf("restock on_hand: got %v, want 107", restockResp["on_hand"])
	}
	// Cook cannot restock.
	postExpectStatus(t, server,
		fmt.Sprintf("/stores/%s/stock/premium_steak/restock", storeID),
		map[string]interface{}{"quantity": 10}, cookToken, http.StatusForbidden)

	t.Logf("Integration test passed: container=%s, store=%s, customer=%s, order=%s",
		pgContainer.GetContainerID(), storeID, customerID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("dinner_test"),
		tcpostgres.WithUsername("dinner"),
		tcpostgres.WithPassword("dinner"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func seedStore(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO stores (name) VALUES ($1) RETURNING id`,
		"Test Dinner Hall",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return id
}

func seedStaff(t *testing.T, ctx context.Context, pool *pgxpool.Pool, storeID uuid.UUID) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	staff := []struct{ name, email, role string }{
		{"Test Manager", "manager@test.com", "MANAGER"},
		{"Test Cook", "cook@test.com", "COOK"},
		{"Test Delivery", "delivery@test.com", "DELIVERY"},
	}
	for _, s := range staff {
		_, err := pool.Exec(ctx,
			`INSERT INTO staff_users (store_id, name, email, password_hash, role)
			 VALUES ($1, $2, $3, $4, $5)`,
			storeID, s.name, s.email, string(hashed), s.role)
		if err != nil {
			t.Fatalf("create staff %s: %v", s.email, err)
		}
	}
}

func seedCatalog(t *testing.T, ctx context.Context, pool *pgxpool.Pool, storeID uuid.UUID) {
	t.Helper()

	exec := func(sql string, args ...interface{}) {
		t.Helper()
		if _, err := pool.Exec(ctx, sql, args...); err != nil {
			t.Fatalf("seed catalog: %v (query: %s)", err, sql)
		}
	}

	exec(`INSERT INTO ingredients (code, name, unit, unit_price) VALUES
		('premium_steak', 'Premium Steak', 'pcs', 18000),
		('red_wine', 'Red Wine', 'bottle', 9000)`)
	exec(`INSERT INTO menu_items (code, name, base_price) VALUES
		('valentine_dinner', 'Valentine Dinner', 60000)`)
	exec(`INSERT INTO serving_styles (menu_code, code, price) VALUES
		('valentine_dinner', 'simple', 30000)`)
	exec(`INSERT INTO style_recipes (menu_code, style_code, ingredient_code, quantity) VALUES
		('valentine_dinner', 'simple', 'premium_steak', 1),
		('valentine_dinner', 'simple', 'red_wine', 1)`)
	exec(`INSERT INTO store_stock (store_id, ingredient_code, on_hand) VALUES
		($1, 'premium_steak', 100),
		($1, 'red_wine', 100)`, storeID)

	var promoID uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO event_promotions (name, starts_at, ends_at)
		 VALUES ('Test Promo', now() - interval '1 day', now() + interval '1 day')
		 RETURNING id`,
	).Scan(&promoID)
	if err != nil {
		t.Fatalf("create promotion: %v", err)
	}
	exec(`INSERT INTO event_discounts (promotion_id, target_type, target_code, discount_type, discount_value, priority) VALUES
		($1, 'MENU', 'valentine_dinner', 'PERCENT', 20, 1),
		($1, 'MENU', 'valentine_dinner', 'FIXED', 5000, 2)`, promoID)
}

func seedCustomer(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO customers (name, email, vip_level, discount_rate)
		 VALUES ('Test Customer', 'customer@test.com', 2, 0.10)
		 RETURNING id`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return id
}

// --- API call helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

func customerLogin(t *testing.T, server *httptest.Server, customerID uuid.UUID) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/customer-token", map[string]interface{}{
		"customer_id": customerID.String(),
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("customer token failed: %+v", resp)
	}
	return token
}

func checkout(t *testing.T, server *httptest.Server, storeID uuid.UUID, token string, body map[string]interface{}, wantStatus int) map[string]interface{} {
	t.Helper()
	return postExpectStatus(t, server, fmt.Sprintf("/stores/%s/orders", storeID), body, token, wantStatus)
}

func updateStatus(t *testing.T, server *httptest.Server, storeID, orderID uuid.UUID, status, token string, wantStatus int) {
	t.Helper()
	b, _ := json.Marshal(map[string]string{"status": status})
	req, err := http.NewRequest("PATCH",
		server.URL+fmt.Sprintf("/stores/%s/orders/%s/status", storeID, orderID),
		bytes.NewReader(b))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("PATCH status %s: got %d, want %d, body: %v", status, resp.StatusCode, wantStatus, errResp)
	}
}

func findStock(t *testing.T, rows []map[string]interface{}, code string) map[string]interface{} {
	t.Helper()
	for _, row := range rows {
		if row["ingredient_code"] == code {
			return row
		}
	}
	t.Fatalf("ingredient %s not in stock response", code)
	return nil
}

// --- HTTP helpers ---

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequest("POST", server.URL+path, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("POST %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func postExpectStatus(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string, wantStatus int) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequest("POST", server.URL+path, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("POST %s: got %d, want %d, body: %v", path, resp.StatusCode, wantStatus, errResp)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("GET %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpGetList(t *testing.T, server *httptest.Server, path string, token string) []map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("GET %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
