package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/inventory"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Lifecycle errors.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotAllowed        = errors.New("role not allowed for this transition")
	ErrStatusConflict    = errors.New("order status changed concurrently")
)

// allowedTransitions is the order state machine. PAYMENT_FAILED is set only
// at checkout and is terminal, so it appears here only as an absent key.
var allowedTransitions = map[string][]string{
	enum.OrderStatusReceived:   {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing:  {enum.OrderStatusDelivering},
	enum.OrderStatusDelivering: {enum.OrderStatusCompleted},
}

// transitionRoles maps each forward transition to the staff roles that may
// perform it. MANAGER may perform any of them.
var transitionRoles = map[string][]string{
	enum.OrderStatusPreparing:  {enum.RoleCook},
	enum.OrderStatusDelivering: {enum.RoleCook},
	enum.OrderStatusCompleted:  {enum.RoleDelivery},
}

func isTransitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isRoleAllowed(role, to string) bool {
	if role == enum.RoleManager {
		return true
	}
	for _, r := range transitionRoles[to] {
		if r == role {
			return true
		}
	}
	return false
}

// AdvanceStatus moves an order one step forward through the state machine.
// Completing an order also consumes its reservations (dropping on-hand
// stock for good) and credits the customer's loyalty counters, all in the
// same transaction.
func (s *OrderService) AdvanceStatus(ctx context.Context, storeID, orderID uuid.UUID, newStatus, role string) (database.Order, error) {
	if newStatus == enum.OrderStatusCancelled {
		return database.Order{}, fmt.Errorf("%w: use Cancel", ErrInvalidTransition)
	}
	if !isRoleAllowed(role, newStatus) {
		return database.Order{}, fmt.Errorf("%w: %s -> %s", ErrNotAllowed, role, newStatus)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: orderID, StoreID: storeID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !isTransitionAllowed(order.Status, newStatus) {
		return database.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	var updated database.Order
	if newStatus == enum.OrderStatusCompleted {
		updated, err = s.completeOrder(ctx, store, order)
	} else {
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         orderID,
			StoreID:    storeID,
			Status:     newStatus,
			PrevStatus: order.Status,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrStatusConflict
		}
	}
	if err != nil {
		return database.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notify(updated.StoreID, StatusEvent{
		OrderID:   updated.ID,
		OldStatus: order.Status,
		NewStatus: updated.Status,
		Timestamp: updated.UpdatedAt,
	})
	return updated, nil
}

func (s *OrderService) completeOrder(ctx context.Context, store OrderStore, order database.Order) (database.Order, error) {
	updated, err := store.CompleteOrder(ctx, database.CompleteOrderParams{ID: order.ID, StoreID: order.StoreID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("complete order: %w", err)
	}

	if err := inventory.New(store).Consume(ctx, order.ID, order.StoreID); err != nil {
		return database.Order{}, err
	}

	if order.CustomerID.Valid {
		if _, err := store.BumpCustomerLoyalty(ctx, database.BumpCustomerLoyaltyParams{
			ID:     uuid.UUID(order.CustomerID.Bytes),
			Amount: order.TotalPrice,
		}); err != nil {
			return database.Order{}, fmt.Errorf("bump customer loyalty: %w", err)
		}
	}
	return updated, nil
}

// Cancel aborts a RECEIVED order: reservations are released, the payment is
// refunded, and the order goes terminal. Orders already in preparation can
// no longer be cancelled.
func (s *OrderService) Cancel(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: orderID, StoreID: storeID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !isTransitionAllowed(order.Status, enum.OrderStatusCancelled) {
		return database.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, enum.OrderStatusCancelled)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		StoreID:    storeID,
		Status:     enum.OrderStatusCancelled,
		PrevStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err := inventory.New(store).Release(ctx, order.ID); err != nil && !errors.Is(err, inventory.ErrAlreadyReleased) {
		return database.Order{}, fmt.Errorf("release reservations: %w", err)
	}

	total := numericToDecimal(order.TotalPrice)
	if total.IsPositive() && order.PaymentStatus == enum.PaymentStatusCompleted {
		if _, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID: order.ID,
			Amount:  decimalToNumeric(total.Neg()),
			Status:  enum.PaymentStatusRefunded,
		}); err != nil {
			return database.Order{}, fmt.Errorf("create refund: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notify(updated.StoreID, StatusEvent{
		OrderID:   updated.ID,
		OldStatus: order.Status,
		NewStatus: updated.Status,
		Timestamp: updated.UpdatedAt,
	})
	return updated, nil
}

func (s *OrderService) notify(storeID uuid.UUID, event StatusEvent) {
	if s.notifier != nil {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}
		s.notifier.OrderStatusChanged(storeID, event)
	}
}
