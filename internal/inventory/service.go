// Package inventory holds and spends ingredient reservations. Stock is
// never decremented at checkout time: availability is derived as on-hand
// minus the sum of open reservations, and on-hand only drops when an order
// completes and its reservations are consumed.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dinnerhall/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyConsumed   = errors.New("reservations already consumed")
	ErrAlreadyReleased   = errors.New("reservations already released")
)

// Store is the subset of database queries the reservation service needs.
// Callers hand in a transaction-scoped Queries so reserve / consume /
// release ride the caller's transaction.
type Store interface {
	GetStockForUpdate(ctx context.Context, arg database.GetStockForUpdateParams) (database.StoreStock, error)
	SumReservedForIngredient(ctx context.Context, arg database.SumReservedForIngredientParams) (int64, error)
	UpsertReservation(ctx context.Context, arg database.UpsertReservationParams) (database.OrderReservation, error)
	ListReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderReservation, error)
	ConsumeReservations(ctx context.Context, arg database.ConsumeReservationsParams) (int64, error)
	DeleteReservations(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Reserve holds the given ingredient quantities for the order, replacing
// any quantities the order already held. Ingredients are processed in
// sorted order so two concurrent checkouts lock stock rows in the same
// sequence and cannot deadlock each other.
//
// All-or-nothing is the caller's transaction's job: on
// ErrInsufficientStock the caller must roll back, which also discards any
// rows already upserted here.
func (s *Service) Reserve(ctx context.Context, orderID, storeID uuid.UUID, needs map[string]int32) error {
	codes := make([]string, 0, len(needs))
	for code := range needs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		quantity := needs[code]
		if quantity <= 0 {
			continue
		}

		stock, err := s.store.GetStockForUpdate(ctx, database.GetStockForUpdateParams{
			StoreID:        storeID,
			IngredientCode: code,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			// No stock row means the store has never stocked this
			// ingredient.
			return fmt.Errorf("%w: %s (requested %d, available 0)", ErrInsufficientStock, code, quantity)
		}
		if err != nil {
			return fmt.Errorf("lock stock for %s: %w", code, err)
		}

		reserved, err := s.store.SumReservedForIngredient(ctx, database.SumReservedForIngredientParams{
			StoreID:        storeID,
			IngredientCode: code,
			ExcludeOrderID: orderID,
		})
		if err != nil {
			return fmt.Errorf("sum reservations for %s: %w", code, err)
		}

		available := int64(stock.OnHand) - reserved
		if int64(quantity) > available {
			if available < 0 {
				available = 0
			}
			return fmt.Errorf("%w: %s (requested %d, available %d)", ErrInsufficientStock, code, quantity, available)
		}

		if _, err := s.store.UpsertReservation(ctx, database.UpsertReservationParams{
			OrderID:        orderID,
			IngredientCode: code,
			Quantity:       quantity,
		}); err != nil {
			return fmt.Errorf("upsert reservation for %s: %w", code, err)
		}
	}
	return nil
}

// Consume flips the order's open reservations to consumed and draws the
// spent quantities down from the store's on-hand stock. Calling it again
// after a full consume is a no-op, and so is an order that never held any
// reservations: a fully customized order can zero out every base
// ingredient, and such an order still has to complete.
func (s *Service) Consume(ctx context.Context, orderID, storeID uuid.UUID) error {
	if _, err := s.store.ConsumeReservations(ctx, database.ConsumeReservationsParams{
		OrderID: orderID,
		StoreID: storeID,
	}); err != nil {
		return fmt.Errorf("consume reservations: %w", err)
	}
	return nil
}

// Release drops the order's reservations, returning the held quantities to
// availability. Once any reservation has been consumed the ingredients are
// spent and the hold can no longer be undone.
func (s *Service) Release(ctx context.Context, orderID uuid.UUID) error {
	reservations, err := s.store.ListReservationsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	if len(reservations) == 0 {
		return ErrAlreadyReleased
	}
	for _, r := range reservations {
		if r.Consumed {
			return ErrAlreadyConsumed
		}
	}

	if _, err := s.store.DeleteReservations(ctx, orderID); err != nil {
		return fmt.Errorf("delete reservations: %w", err)
	}
	return nil
}
