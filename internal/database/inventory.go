package database

import (
	"context"

	"github.com/google/uuid"
)

const getStockForUpdate = `
SELECT store_id, ingredient_code, on_hand, updated_at
FROM store_stock
WHERE store_id = $1 AND ingredient_code = $2
FOR UPDATE
`

type GetStockForUpdateParams struct {
	StoreID        uuid.UUID
	IngredientCode string
}

// GetStockForUpdate locks the stock row; concurrent reservations for the
// same ingredient at the same store serialize here.
func (q *Queries) GetStockForUpdate(ctx context.Context, arg GetStockForUpdateParams) (StoreStock, error) {
	row := q.db.QueryRow(ctx, getStockForUpdate, arg.StoreID, arg.IngredientCode)
	var s StoreStock
	err := row.Scan(&s.StoreID, &s.IngredientCode, &s.OnHand, &s.UpdatedAt)
	return s, err
}

const sumReservedForIngredient = `
SELECT COALESCE(SUM(r.quantity), 0)::bigint
FROM order_reservations r
JOIN orders o ON o.id = r.order_id
WHERE o.store_id = $1
  AND r.ingredient_code = $2
  AND NOT r.consumed
  AND r.order_id <> $3
`

type SumReservedForIngredientParams struct {
	StoreID        uuid.UUID
	IngredientCode string
	ExcludeOrderID uuid.UUID
}

// SumReservedForIngredient returns the quantity held by open reservations
// of other orders; availability is derived as on_hand minus this sum.
func (q *Queries) SumReservedForIngredient(ctx context.Context, arg SumReservedForIngredientParams) (int64, error) {
	row := q.db.QueryRow(ctx, sumReservedForIngredient, arg.StoreID, arg.IngredientCode, arg.ExcludeOrderID)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const upsertReservation = `
INSERT INTO order_reservations (order_id, ingredient_code, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (order_id, ingredient_code)
DO UPDATE SET quantity = EXCLUDED.quantity
RETURNING id, order_id, ingredient_code, quantity, consumed, consumed_at, created_at
`

type UpsertReservationParams struct {
	OrderID        uuid.UUID
	IngredientCode string
	Quantity       int32
}

func (q *Queries) UpsertReservation(ctx context.Context, arg UpsertReservationParams) (OrderReservation, error) {
	row := q.db.QueryRow(ctx, upsertReservation, arg.OrderID, arg.IngredientCode, arg.Quantity)
	var r OrderReservation
	err := row.Scan(&r.ID, &r.OrderID, &r.IngredientCode, &r.Quantity, &r.Consumed, &r.ConsumedAt, &r.CreatedAt)
	return r, err
}

const listReservationsByOrder = `
SELECT id, order_id, ingredient_code, quantity, consumed, consumed_at, created_at
FROM order_reservations
WHERE order_id = $1
ORDER BY ingredient_code
`

func (q *Queries) ListReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderReservation, error) {
	rows, err := q.db.Query(ctx, listReservationsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderReservation
	for rows.Next() {
		var r OrderReservation
		if err := rows.Scan(&r.ID, &r.OrderID, &r.IngredientCode, &r.Quantity, &r.Consumed, &r.ConsumedAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const consumeReservations = `
WITH spent AS (
	UPDATE order_reservations
	SET consumed = TRUE, consumed_at = now()
	WHERE order_id = $1 AND NOT consumed
	RETURNING ingredient_code, quantity
)
UPDATE store_stock s
SET on_hand = s.on_hand - spent.quantity, updated_at = now()
FROM spent
WHERE s.store_id = $2 AND s.ingredient_code = spent.ingredient_code
`

type ConsumeReservationsParams struct {
	OrderID uuid.UUID
	StoreID uuid.UUID
}

// ConsumeReservations flips the order's open reservations and subtracts
// the spent quantities from on-hand stock in one statement, so the hold
// and the drawdown can never diverge. Returns the number of ingredients
// drawn down; zero is fine for a repeated call or an order that never
// held any.
func (q *Queries) ConsumeReservations(ctx context.Context, arg ConsumeReservationsParams) (int64, error) {
	tag, err := q.db.Exec(ctx, consumeReservations, arg.OrderID, arg.StoreID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteReservations = `
DELETE FROM order_reservations
WHERE order_id = $1
`

func (q *Queries) DeleteReservations(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteReservations, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const addStock = `
INSERT INTO store_stock (store_id, ingredient_code, on_hand)
VALUES ($1, $2, $3)
ON CONFLICT (store_id, ingredient_code)
DO UPDATE SET on_hand = store_stock.on_hand + EXCLUDED.on_hand, updated_at = now()
RETURNING store_id, ingredient_code, on_hand, updated_at
`

type AddStockParams struct {
	StoreID        uuid.UUID
	IngredientCode string
	Quantity       int32
}

func (q *Queries) AddStock(ctx context.Context, arg AddStockParams) (StoreStock, error) {
	row := q.db.QueryRow(ctx, addStock, arg.StoreID, arg.IngredientCode, arg.Quantity)
	var s StoreStock
	err := row.Scan(&s.StoreID, &s.IngredientCode, &s.OnHand, &s.UpdatedAt)
	return s, err
}

const listStoreStock = `
SELECT s.ingredient_code, i.name, i.unit, s.on_hand,
	COALESCE((
		SELECT SUM(r.quantity)
		FROM order_reservations r
		JOIN orders o ON o.id = r.order_id
		WHERE o.store_id = s.store_id
		  AND r.ingredient_code = s.ingredient_code
		  AND NOT r.consumed
	), 0)::bigint AS reserved
FROM store_stock s
JOIN ingredients i ON i.code = s.ingredient_code
WHERE s.store_id = $1
ORDER BY s.ingredient_code
`

type StoreStockRow struct {
	IngredientCode string
	Name           string
	Unit           string
	OnHand         int32
	Reserved       int64
}

func (q *Queries) ListStoreStock(ctx context.Context, storeID uuid.UUID) ([]StoreStockRow, error) {
	rows, err := q.db.Query(ctx, listStoreStock, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StoreStockRow
	for rows.Next() {
		var r StoreStockRow
		if err := rows.Scan(&r.IngredientCode, &r.Name, &r.Unit, &r.OnHand, &r.Reserved); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
