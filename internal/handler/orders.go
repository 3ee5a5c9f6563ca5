package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dinnerhall/api/internal/catalog"
	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/inventory"
	"github.com/dinnerhall/api/internal/middleware"
	"github.com/dinnerhall/api/internal/payment"
	"github.com/dinnerhall/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	AdvanceStatus(ctx context.Context, storeID, orderID uuid.UUID, newStatus, role string) (database.Order, error)
	Cancel(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemCustomizations(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemCustomization, error)
	ListOrderSideDishesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderSideDish, error)
	ListCakeCustomizationsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.CakeCustomization, error)
	ListOrderDiscountsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderDiscount, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	ListReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderReservation, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a store-scoped subrouter: /stores/{sid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Checkout)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Cancel)
}

// --- Request / Response types ---

type checkoutRequest struct {
	CustomerID      string            `json:"customer_id"`
	MenuCode        string            `json:"menu_code"`
	StyleCode       string            `json:"style_code"`
	Quantity        int32             `json:"quantity"`
	Customizations  map[string]int32  `json:"customizations"`
	SideDishes      []sideDishRequest `json:"side_dishes"`
	Cake            *cakeRequest      `json:"cake"`
	DeliveryAddress string            `json:"delivery_address"`
	Card            cardRequest       `json:"card"`
}

type sideDishRequest struct {
	Code     string `json:"code"`
	Quantity int32  `json:"quantity"`
}

type cakeRequest struct {
	Flavor string `json:"flavor"`
	Size   string `json:"size"`
}

type cardRequest struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVV      string `json:"cvv"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID              uuid.UUID `json:"id"`
	StoreID         uuid.UUID `json:"store_id"`
	OrderNumber     string    `json:"order_number"`
	CustomerID      *string   `json:"customer_id"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	OriginalPrice   string    `json:"original_price"`
	EventDiscount   string    `json:"event_discount"`
	LoyaltyDiscount string    `json:"loyalty_discount"`
	TotalPrice      string    `json:"total_price"`
	DeliveryAddress *string   `json:"delivery_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID             uuid.UUID               `json:"id"`
	MenuCode       string                  `json:"menu_code"`
	StyleCode      string                  `json:"style_code"`
	Quantity       int32                   `json:"quantity"`
	PricePerItem   string                  `json:"price_per_item"`
	Customizations []customizationResponse `json:"customizations"`
}

type customizationResponse struct {
	ItemName       string `json:"item_name"`
	ChangeType     string `json:"change_type"`
	QuantityChange int32  `json:"quantity_change"`
}

type orderSideDishResponse struct {
	Code      string `json:"code"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

type cakeResponse struct {
	Flavor    string `json:"flavor"`
	Size      string `json:"size"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

type discountResponse struct {
	Source        string  `json:"source"`
	TargetType    *string `json:"target_type"`
	TargetCode    *string `json:"target_code"`
	DiscountType  *string `json:"discount_type"`
	DiscountValue string  `json:"discount_value"`
	Amount        string  `json:"amount"`
}

type paymentResponse struct {
	ID        uuid.UUID `json:"id"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CardLast4 *string   `json:"card_last4"`
	CreatedAt time.Time `json:"created_at"`
}

type reservationResponse struct {
	IngredientCode string     `json:"ingredient_code"`
	Quantity       int32      `json:"quantity"`
	Consumed       bool       `json:"consumed"`
	ConsumedAt     *time.Time `json:"consumed_at"`
}

// orderDetailResponse is the full GET detail payload.
type orderDetailResponse struct {
	orderResponse
	Items        []orderItemResponse     `json:"items"`
	SideDishes   []orderSideDishResponse `json:"side_dishes"`
	Cake         *cakeResponse           `json:"cake"`
	Discounts    []discountResponse      `json:"discounts"`
	Payments     []paymentResponse       `json:"payments"`
	Reservations []reservationResponse   `json:"reservations"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Checkout handles POST /stores/{sid}/orders.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.MenuCode == "" || req.StyleCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_code and style_code are required"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	// A customer always orders as themselves.
	customerID := req.CustomerID
	if claims.Role == enum.RoleCustomer {
		customerID = claims.UserID.String()
	}

	sideDishes := make([]service.SideDishRequest, len(req.SideDishes))
	for i, sd := range req.SideDishes {
		sideDishes[i] = service.SideDishRequest{Code: sd.Code, Quantity: sd.Quantity}
	}
	var cake *service.CakeRequest
	if req.Cake != nil {
		cake = &service.CakeRequest{Flavor: req.Cake.Flavor, Size: req.Cake.Size}
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		StoreID:         storeID,
		CustomerID:      customerID,
		MenuCode:        req.MenuCode,
		StyleCode:       req.StyleCode,
		Quantity:        req.Quantity,
		Customizations:  req.Customizations,
		SideDishes:      sideDishes,
		Cake:            cake,
		DeliveryAddress: req.DeliveryAddress,
		Card: payment.Card{
			Number:   req.Card.Number,
			ExpMonth: req.Card.ExpMonth,
			ExpYear:  req.Card.ExpYear,
			CVV:      req.Card.CVV,
		},
	})
	if err != nil {
		if errors.Is(err, payment.ErrCardDeclined) && result != nil {
			// The failed order is persisted; hand it back with 402.
			writeJSON(w, http.StatusPaymentRequired, toCheckoutResponse(result))
			return
		}
		writeServiceError(w, err, "checkout")
		return
	}

	writeJSON(w, http.StatusCreated, toCheckoutResponse(result))
}

// List handles GET /stores/{sid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		StoreID: storeID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /stores/{sid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := parseStoreOrder(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, StoreID: storeID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims != nil && claims.Role == enum.RoleCustomer && !ownsOrder(order, claims.UserID) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return
	}

	detail := orderDetailResponse{orderResponse: toOrderResponse(order)}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, item := range items {
		ir := orderItemResponse{
			ID:           item.ID,
			MenuCode:     item.MenuCode,
			StyleCode:    item.StyleCode,
			Quantity:     item.Quantity,
			PricePerItem: numericToString(item.PricePerItem),
		}
		customizations, err := h.store.ListOrderItemCustomizations(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list customizations: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		for _, c := range customizations {
			ir.Customizations = append(ir.Customizations, customizationResponse{
				ItemName:       c.ItemName,
				ChangeType:     c.ChangeType,
				QuantityChange: c.QuantityChange,
			})
		}
		detail.Items = append(detail.Items, ir)
	}

	sides, err := h.store.ListOrderSideDishesByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order side dishes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, sd := range sides {
		detail.SideDishes = append(detail.SideDishes, orderSideDishResponse{
			Code:      sd.SideDishCode,
			Quantity:  sd.Quantity,
			UnitPrice: numericToString(sd.UnitPrice),
			Total:     numericToString(sd.Total),
		})
	}

	cakes, err := h.store.ListCakeCustomizationsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list cake customizations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(cakes) > 0 {
		c := cakes[0]
		detail.Cake = &cakeResponse{
			Flavor:    c.Flavor,
			Size:      c.Size,
			UnitPrice: numericToString(c.UnitPrice),
			Total:     numericToString(c.Total),
		}
	}

	discounts, err := h.store.ListOrderDiscountsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order discounts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, d := range discounts {
		detail.Discounts = append(detail.Discounts, discountResponse{
			Source:        d.Source,
			TargetType:    textToPtr(d.TargetType),
			TargetCode:    textToPtr(d.TargetCode),
			DiscountType:  textToPtr(d.DiscountType),
			DiscountValue: numericToString(d.DiscountValue),
			Amount:        numericToString(d.Amount),
		})
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, p := range payments {
		detail.Payments = append(detail.Payments, paymentResponse{
			ID:        p.ID,
			Amount:    numericToString(p.Amount),
			Status:    p.Status,
			CardLast4: textToPtr(p.CardLast4),
			CreatedAt: p.CreatedAt,
		})
	}

	reservations, err := h.store.ListReservationsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list reservations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, res := range reservations {
		rr := reservationResponse{
			IngredientCode: res.IngredientCode,
			Quantity:       res.Quantity,
			Consumed:       res.Consumed,
		}
		if res.ConsumedAt.Valid {
			t := res.ConsumedAt.Time
			rr.ConsumedAt = &t
		}
		detail.Reservations = append(detail.Reservations, rr)
	}

	writeJSON(w, http.StatusOK, detail)
}

// UpdateStatus handles PATCH /stores/{sid}/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := parseStoreOrder(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.AdvanceStatus(r.Context(), storeID, orderID, req.Status, claims.Role)
	if err != nil {
		writeServiceError(w, err, "update order status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Cancel handles DELETE /stores/{sid}/orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := parseStoreOrder(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	switch claims.Role {
	case enum.RoleManager:
		// managers cancel anything still cancellable
	case enum.RoleCustomer:
		order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, StoreID: storeID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
				return
			}
			log.Printf("ERROR: get order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if !ownsOrder(order, claims.UserID) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your order"})
			return
		}
	default:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}

	order, err := h.svc.Cancel(r.Context(), storeID, orderID)
	if err != nil {
		writeServiceError(w, err, "cancel order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// --- Helpers ---

func parseStoreOrder(w http.ResponseWriter, r *http.Request) (storeID, orderID uuid.UUID, ok bool) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return storeID, orderID, true
}

func ownsOrder(order database.Order, userID uuid.UUID) bool {
	return order.CustomerID.Valid && uuid.UUID(order.CustomerID.Bytes) == userID
}

// writeServiceError maps known service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCustomization),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, catalog.ErrMenuNotFound),
		errors.Is(err, catalog.ErrMenuUnavailable),
		errors.Is(err, catalog.ErrStyleNotFound),
		errors.Is(err, catalog.ErrSideDishNotFound),
		errors.Is(err, catalog.ErrIngredientNotFound),
		errors.Is(err, payment.ErrInvalidCard),
		errors.Is(err, payment.ErrCardExpired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotAllowed):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, payment.ErrCardDeclined):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		StoreID:         o.StoreID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		OriginalPrice:   numericToString(o.OriginalPrice),
		EventDiscount:   numericToString(o.EventDiscount),
		LoyaltyDiscount: numericToString(o.LoyaltyDiscount),
		TotalPrice:      numericToString(o.TotalPrice),
		DeliveryAddress: textToPtr(o.DeliveryAddress),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.CustomerID.Valid {
		s := uuid.UUID(o.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	return resp
}

func toCheckoutResponse(result *service.CheckoutResult) orderDetailResponse {
	detail := orderDetailResponse{orderResponse: toOrderResponse(result.Order)}

	item := orderItemResponse{
		ID:           result.Item.ID,
		MenuCode:     result.Item.MenuCode,
		StyleCode:    result.Item.StyleCode,
		Quantity:     result.Item.Quantity,
		PricePerItem: numericToString(result.Item.PricePerItem),
	}
	for _, c := range result.Customizations {
		item.Customizations = append(item.Customizations, customizationResponse{
			ItemName:       c.ItemName,
			ChangeType:     c.ChangeType,
			QuantityChange: c.QuantityChange,
		})
	}
	detail.Items = append(detail.Items, item)

	for _, sd := range result.SideDishes {
		detail.SideDishes = append(detail.SideDishes, orderSideDishResponse{
			Code:      sd.SideDishCode,
			Quantity:  sd.Quantity,
			UnitPrice: numericToString(sd.UnitPrice),
			Total:     numericToString(sd.Total),
		})
	}
	if result.Cake != nil {
		detail.Cake = &cakeResponse{
			Flavor:    result.Cake.Flavor,
			Size:      result.Cake.Size,
			UnitPrice: numericToString(result.Cake.UnitPrice),
			Total:     numericToString(result.Cake.Total),
		}
	}
	for _, d := range result.Discounts {
		detail.Discounts = append(detail.Discounts, discountResponse{
			Source:        d.Source,
			TargetType:    textToPtr(d.TargetType),
			TargetCode:    textToPtr(d.TargetCode),
			DiscountType:  textToPtr(d.DiscountType),
			DiscountValue: numericToString(d.DiscountValue),
			Amount:        numericToString(d.Amount),
		})
	}
	if result.Payment != nil {
		detail.Payments = append(detail.Payments, paymentResponse{
			ID:        result.Payment.ID,
			Amount:    numericToString(result.Payment.Amount),
			Status:    result.Payment.Status,
			CardLast4: textToPtr(result.Payment.CardLast4),
			CreatedAt: result.Payment.CreatedAt,
		})
	}
	return detail
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	s, ok := val.(string)
	if !ok {
		return "0"
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.String()
	}
	return s
}

func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
