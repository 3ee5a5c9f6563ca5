// Package service holds the order business logic: checkout (pricing,
// discounts, payment, reservation) and the order lifecycle. Handlers stay
// thin; everything that must be atomic runs here inside one transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dinnerhall/api/internal/catalog"
	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/discount"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/inventory"
	"github.com/dinnerhall/api/internal/payment"
	"github.com/dinnerhall/api/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidCustomization = errors.New("customization quantity must be >= 0")
	ErrInvalidCustomerID    = errors.New("invalid customer_id")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrOrderNotFound        = errors.New("order not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	catalog.Store
	inventory.Store

	GetNextOrderNumber(ctx context.Context, storeID uuid.UUID) (int32, error)
	ListActiveEventDiscounts(ctx context.Context, arg database.ListActiveEventDiscountsParams) ([]database.EventDiscount, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	BumpCustomerLoyalty(ctx context.Context, arg database.BumpCustomerLoyaltyParams) (database.Customer, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemCustomization(ctx context.Context, arg database.CreateOrderItemCustomizationParams) (database.OrderItemCustomization, error)
	CreateOrderSideDish(ctx context.Context, arg database.CreateOrderSideDishParams) (database.OrderSideDish, error)
	CreateCakeCustomization(ctx context.Context, arg database.CreateCakeCustomizationParams) (database.CakeCustomization, error)
	CreateOrderDiscount(ctx context.Context, arg database.CreateOrderDiscountParams) (database.OrderDiscount, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)

	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// StatusEvent is published after a lifecycle transition commits.
type StatusEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier pushes status events to listeners. Implemented by the ws hub.
type Notifier interface {
	OrderStatusChanged(storeID uuid.UUID, event StatusEvent)
}

// OrderService handles checkout and the order lifecycle.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	gateway  payment.Gateway
	notifier Notifier
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore, gateway payment.Gateway, notifier Notifier) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, gateway: gateway, notifier: notifier}
}

// SideDishRequest is one chosen side dish.
type SideDishRequest struct {
	Code     string
	Quantity int32
}

// CakeRequest selects the custom cake.
type CakeRequest struct {
	Flavor string
	Size   string
}

// CheckoutRequest is the validated input for placing an order.
//
// Customizations map ingredient code to the requested total for the whole
// order, not per set.
type CheckoutRequest struct {
	StoreID         uuid.UUID
	CustomerID      string
	MenuCode        string
	StyleCode       string
	Quantity        int32
	Customizations  map[string]int32
	SideDishes      []SideDishRequest
	Cake            *CakeRequest
	DeliveryAddress string
	Card            payment.Card
}

// CheckoutResult is the persisted order with all its detail rows.
type CheckoutResult struct {
	Order          database.Order
	Item           database.OrderItem
	Customizations []database.OrderItemCustomization
	SideDishes     []database.OrderSideDish
	Cake           *database.CakeCustomization
	Discounts      []database.OrderDiscount
	Payment        *database.Payment
}

// Checkout prices the cart, applies discounts, charges the card, persists
// the order and reserves its ingredients, all in one transaction. On a
// card decline the order is still persisted in PAYMENT_FAILED with no
// reservations and ErrCardDeclined is returned alongside it.
//
// Retries up to maxOrderNumberRetries times on order_number unique
// constraint violations (concurrent checkouts can draw the same number).
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	for code, qty := range req.Customizations {
		if qty < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCustomization, code)
		}
	}
	for i, sd := range req.SideDishes {
		if sd.Quantity <= 0 {
			return nil, fmt.Errorf("side_dishes[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	customerID := pgtype.UUID{}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.checkoutTx(ctx, req, customerID)
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return result, err
	}
	return nil, lastErr
}

func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_store_id_order_number_key"
	}
	return false
}

func (s *OrderService) checkoutTx(ctx context.Context, req CheckoutRequest, customerID pgtype.UUID) (*CheckoutResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Resolve the cart against the catalog ---
	customizationCodes := make([]string, 0, len(req.Customizations))
	for code := range req.Customizations {
		customizationCodes = append(customizationCodes, code)
	}
	sideDishCodes := make([]string, 0, len(req.SideDishes))
	sideSelections := make([]pricing.SideDishSelection, 0, len(req.SideDishes))
	for _, sd := range req.SideDishes {
		sideDishCodes = append(sideDishCodes, sd.Code)
		sideSelections = append(sideSelections, pricing.SideDishSelection{Code: sd.Code, Quantity: sd.Quantity})
	}
	var cakeSel *catalog.CakeSelection
	if req.Cake != nil {
		cakeSel = &catalog.CakeSelection{Flavor: req.Cake.Flavor, Size: req.Cake.Size}
	}

	sn, err := catalog.Load(ctx, store, req.MenuCode, req.StyleCode, sideDishCodes, cakeSel, customizationCodes)
	if err != nil {
		return nil, err
	}

	// --- Price ---
	breakdown := pricing.Calculate(sn, req.Quantity, req.Customizations, sideSelections, req.Cake != nil)

	// --- Discounts ---
	now := time.Now().UTC()
	targets, err := s.loadDiscountTargets(ctx, store, req, breakdown, now)
	if err != nil {
		return nil, err
	}

	loyaltyRate := decimal.Zero
	if customerID.Valid {
		customer, err := store.GetCustomer(ctx, uuid.UUID(customerID.Bytes))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("get customer: %w", err)
		}
		loyaltyRate = numericToDecimal(customer.DiscountRate)
	}

	priced := discount.Apply(breakdown.OriginalPrice, targets, loyaltyRate)
	for _, rule := range priced.Skipped {
		log.Printf("WARN: skipping misconfigured event discount %s (type=%s value=%s)", rule.ID, rule.Type, rule.Value)
	}

	// --- Charge the card ---
	status := enum.OrderStatusReceived
	paymentStatus := enum.PaymentStatusCompleted
	var auth payment.Authorization
	if priced.FinalPrice.IsPositive() {
		auth, err = s.gateway.Authorize(ctx, req.Card, priced.FinalPrice)
		switch {
		case errors.Is(err, payment.ErrCardDeclined):
			// Persist the order for audit, but hold nothing for it.
			status = enum.OrderStatusPaymentFailed
			paymentStatus = enum.PaymentStatusFailed
		case err != nil:
			return nil, err
		}
	}

	// --- Persist ---
	nextNum, err := store.GetNextOrderNumber(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("DNR-%s-%03d", now.Format("20060102"), nextNum)

	deliveryAddress := pgtype.Text{}
	if req.DeliveryAddress != "" {
		deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		StoreID:         req.StoreID,
		OrderNumber:     orderNumber,
		CustomerID:      customerID,
		Status:          status,
		PaymentStatus:   paymentStatus,
		OriginalPrice:   decimalToNumeric(priced.OriginalPrice),
		EventDiscount:   decimalToNumeric(priced.EventDiscount),
		LoyaltyDiscount: decimalToNumeric(priced.LoyaltyDiscount),
		TotalPrice:      decimalToNumeric(priced.FinalPrice),
		DeliveryAddress: deliveryAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	result := &CheckoutResult{Order: order}

	item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
		OrderID:      order.ID,
		MenuCode:     req.MenuCode,
		StyleCode:    req.StyleCode,
		Quantity:     req.Quantity,
		PricePerItem: decimalToNumeric(sn.Style.Price),
	})
	if err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}
	result.Item = item

	if err := s.recordCustomizations(ctx, store, item, sn, req, result); err != nil {
		return nil, err
	}

	for i, line := range breakdown.SideDishes {
		row, err := store.CreateOrderSideDish(ctx, database.CreateOrderSideDishParams{
			OrderID:      order.ID,
			SideDishCode: line.Code,
			Quantity:     line.Quantity,
			UnitPrice:    decimalToNumeric(line.UnitPrice),
			Total:        decimalToNumeric(line.Total),
		})
		if err != nil {
			return nil, fmt.Errorf("side_dishes[%d]: %w", i, err)
		}
		result.SideDishes = append(result.SideDishes, row)
	}

	if req.Cake != nil && breakdown.Cake != nil {
		row, err := store.CreateCakeCustomization(ctx, database.CreateCakeCustomizationParams{
			OrderID:   order.ID,
			Flavor:    req.Cake.Flavor,
			Size:      req.Cake.Size,
			UnitPrice: decimalToNumeric(breakdown.Cake.UnitPrice),
			Total:     decimalToNumeric(breakdown.Cake.UnitPrice),
		})
		if err != nil {
			return nil, fmt.Errorf("create cake customization: %w", err)
		}
		result.Cake = &row
	}

	if err := s.recordDiscounts(ctx, store, order.ID, priced, result); err != nil {
		return nil, err
	}

	if priced.FinalPrice.IsPositive() {
		cardLast4 := pgtype.Text{}
		if auth.Last4 != "" {
			cardLast4 = pgtype.Text{String: auth.Last4, Valid: true}
		} else if len(req.Card.Number) >= 4 {
			cardLast4 = pgtype.Text{String: req.Card.Number[len(req.Card.Number)-4:], Valid: true}
		}
		pay, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:   order.ID,
			Amount:    decimalToNumeric(priced.FinalPrice),
			Status:    paymentStatus,
			CardLast4: cardLast4,
		})
		if err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
		result.Payment = &pay
	}

	// --- Reserve ingredients (skipped for failed payments) ---
	if status == enum.OrderStatusReceived {
		needs := pricing.Requirements(sn, req.Quantity, req.Customizations, sideSelections, req.Cake != nil)
		if err := inventory.New(store).Reserve(ctx, order.ID, req.StoreID, needs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	// Declined checkouts still persist an order, so they still notify.
	s.notify(order.StoreID, StatusEvent{
		OrderID:   order.ID,
		OldStatus: "",
		NewStatus: order.Status,
		Timestamp: order.CreatedAt,
	})

	if status == enum.OrderStatusPaymentFailed {
		return result, payment.ErrCardDeclined
	}
	return result, nil
}

// recordCustomizations writes the audit trail: one ADD or REMOVE row per
// ingredient whose requested total differs from the base recipe total.
func (s *OrderService) recordCustomizations(ctx context.Context, store OrderStore, item database.OrderItem, sn *catalog.Snapshot, req CheckoutRequest, result *CheckoutResult) error {
	for code, requested := range req.Customizations {
		baseTotal := sn.Style.Recipe[code] * req.Quantity
		diff := requested - baseTotal
		if diff == 0 {
			continue
		}
		changeType := enum.ChangeTypeAdd
		if diff < 0 {
			changeType = enum.ChangeTypeRemove
			diff = -diff
		}
		row, err := store.CreateOrderItemCustomization(ctx, database.CreateOrderItemCustomizationParams{
			OrderItemID:    item.ID,
			ItemName:       code,
			ChangeType:     changeType,
			QuantityChange: diff,
		})
		if err != nil {
			return fmt.Errorf("create customization %s: %w", code, err)
		}
		result.Customizations = append(result.Customizations, row)
	}
	return nil
}

// recordDiscounts writes the ledger: one row per applied event rule, plus
// one LOYALTY row when the loyalty discount is non-zero.
func (s *OrderService) recordDiscounts(ctx context.Context, store OrderStore, orderID uuid.UUID, priced discount.Result, result *CheckoutResult) error {
	for _, applied := range priced.Ledger {
		row, err := store.CreateOrderDiscount(ctx, database.CreateOrderDiscountParams{
			OrderID:       orderID,
			Source:        enum.DiscountSourceEvent,
			TargetType:    pgtype.Text{String: applied.Target.Type, Valid: true},
			TargetCode:    pgtype.Text{String: applied.Target.Code, Valid: true},
			DiscountType:  pgtype.Text{String: applied.Rule.Type, Valid: true},
			DiscountValue: decimalToNumeric(applied.Rule.Value),
			Amount:        decimalToNumeric(applied.Amount),
		})
		if err != nil {
			return fmt.Errorf("create event discount row: %w", err)
		}
		result.Discounts = append(result.Discounts, row)
	}

	if priced.LoyaltyDiscount.IsPositive() {
		row, err := store.CreateOrderDiscount(ctx, database.CreateOrderDiscountParams{
			OrderID: orderID,
			Source:  enum.DiscountSourceLoyalty,
			Amount:  decimalToNumeric(priced.LoyaltyDiscount),
		})
		if err != nil {
			return fmt.Errorf("create loyalty discount row: %w", err)
		}
		result.Discounts = append(result.Discounts, row)
	}
	return nil
}

// loadDiscountTargets builds one discount target per independently priced
// amount: the menu line, each side dish, and the cake. Rules come back
// from the store already ordered by priority.
func (s *OrderService) loadDiscountTargets(ctx context.Context, store OrderStore, req CheckoutRequest, breakdown pricing.Breakdown, now time.Time) ([]discount.Target, error) {
	var targets []discount.Target

	menuRules, err := s.loadRules(ctx, store, enum.DiscountTargetMenu, req.MenuCode, now)
	if err != nil {
		return nil, err
	}
	targets = append(targets, discount.Target{
		Type:       enum.DiscountTargetMenu,
		Code:       req.MenuCode,
		BaseAmount: breakdown.BasePriceTotal,
		Quantity:   req.Quantity,
		Rules:      menuRules,
	})

	for _, line := range breakdown.SideDishes {
		rules, err := s.loadRules(ctx, store, enum.DiscountTargetSideDish, line.Code, now)
		if err != nil {
			return nil, err
		}
		targets = append(targets, discount.Target{
			Type:       enum.DiscountTargetSideDish,
			Code:       line.Code,
			BaseAmount: line.Total,
			Quantity:   line.Quantity,
			Rules:      rules,
		})
	}

	if breakdown.Cake != nil {
		rules, err := s.loadRules(ctx, store, enum.DiscountTargetSideDish, catalog.GenericCakeCode, now)
		if err != nil {
			return nil, err
		}
		targets = append(targets, discount.Target{
			Type:       enum.DiscountTargetSideDish,
			Code:       catalog.GenericCakeCode,
			BaseAmount: breakdown.Cake.UnitPrice,
			Quantity:   1,
			Rules:      rules,
		})
	}

	return targets, nil
}

func (s *OrderService) loadRules(ctx context.Context, store OrderStore, targetType, targetCode string, now time.Time) ([]discount.Rule, error) {
	rows, err := store.ListActiveEventDiscounts(ctx, database.ListActiveEventDiscountsParams{
		TargetType: targetType,
		TargetCode: targetCode,
		At:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("list event discounts for %s/%s: %w", targetType, targetCode, err)
	}
	rules := make([]discount.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, discount.Rule{
			ID:         row.ID,
			TargetType: row.TargetType,
			TargetCode: row.TargetCode,
			Type:       row.DiscountType,
			Value:      numericToDecimal(row.DiscountValue),
			Priority:   row.Priority,
		})
	}
	return rules, nil
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

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}
	}
	return n
}
