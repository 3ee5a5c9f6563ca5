package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getNextOrderNumber = `
SELECT COUNT(*) + 1
FROM orders
WHERE store_id = $1 AND created_at::date = (now() AT TIME ZONE 'utc')::date
`

func (q *Queries) GetNextOrderNumber(ctx context.Context, storeID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, storeID)
	var n int32
	err := row.Scan(&n)
	return n, err
}

const createOrder = `
INSERT INTO orders (
	store_id, order_number, customer_id, status, payment_status,
	original_price, event_discount, loyalty_discount, total_price,
	delivery_address
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, store_id, order_number, customer_id, status, payment_status,
	original_price, event_discount, loyalty_discount, total_price,
	delivery_address, inventory_consumed, created_at, updated_at
`

type CreateOrderParams struct {
	StoreID         uuid.UUID
	OrderNumber     string
	CustomerID      pgtype.UUID
	Status          string
	PaymentStatus   string
	OriginalPrice   pgtype.Numeric
	EventDiscount   pgtype.Numeric
	LoyaltyDiscount pgtype.Numeric
	TotalPrice      pgtype.Numeric
	DeliveryAddress pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.StoreID, arg.OrderNumber, arg.CustomerID, arg.Status, arg.PaymentStatus,
		arg.OriginalPrice, arg.EventDiscount, arg.LoyaltyDiscount, arg.TotalPrice,
		arg.DeliveryAddress,
	)
	return scanOrder(row)
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_code, style_code, quantity, price_per_item)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, menu_code, style_code, quantity, price_per_item
`

type CreateOrderItemParams struct {
	OrderID      uuid.UUID
	MenuCode     string
	StyleCode    string
	Quantity     int32
	PricePerItem pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuCode, arg.StyleCode, arg.Quantity, arg.PricePerItem,
	)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuCode, &i.StyleCode, &i.Quantity, &i.PricePerItem)
	return i, err
}

const createOrderItemCustomization = `
INSERT INTO order_item_customizations (order_item_id, item_name, change_type, quantity_change)
VALUES ($1, $2, $3, $4)
RETURNING id, order_item_id, item_name, change_type, quantity_change
`

type CreateOrderItemCustomizationParams struct {
	OrderItemID    uuid.UUID
	ItemName       string
	ChangeType     string
	QuantityChange int32
}

func (q *Queries) CreateOrderItemCustomization(ctx context.Context, arg CreateOrderItemCustomizationParams) (OrderItemCustomization, error) {
	row := q.db.QueryRow(ctx, createOrderItemCustomization,
		arg.OrderItemID, arg.ItemName, arg.ChangeType, arg.QuantityChange,
	)
	var i OrderItemCustomization
	err := row.Scan(&i.ID, &i.OrderItemID, &i.ItemName, &i.ChangeType, &i.QuantityChange)
	return i, err
}

const createOrderSideDish = `
INSERT INTO order_side_dishes (order_id, side_dish_code, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, side_dish_code, quantity, unit_price, total
`

type CreateOrderSideDishParams struct {
	OrderID      uuid.UUID
	SideDishCode string
	Quantity     int32
	UnitPrice    pgtype.Numeric
	Total        pgtype.Numeric
}

func (q *Queries) CreateOrderSideDish(ctx context.Context, arg CreateOrderSideDishParams) (OrderSideDish, error) {
	row := q.db.QueryRow(ctx, createOrderSideDish,
		arg.OrderID, arg.SideDishCode, arg.Quantity, arg.UnitPrice, arg.Total,
	)
	var i OrderSideDish
	err := row.Scan(&i.ID, &i.OrderID, &i.SideDishCode, &i.Quantity, &i.UnitPrice, &i.Total)
	return i, err
}

const createCakeCustomization = `
INSERT INTO cake_customizations (order_id, flavor, size, unit_price, total)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, flavor, size, unit_price, total
`

type CreateCakeCustomizationParams struct {
	OrderID   uuid.UUID
	Flavor    string
	Size      string
	UnitPrice pgtype.Numeric
	Total     pgtype.Numeric
}

func (q *Queries) CreateCakeCustomization(ctx context.Context, arg CreateCakeCustomizationParams) (CakeCustomization, error) {
	row := q.db.QueryRow(ctx, createCakeCustomization,
		arg.OrderID, arg.Flavor, arg.Size, arg.UnitPrice, arg.Total,
	)
	var i CakeCustomization
	err := row.Scan(&i.ID, &i.OrderID, &i.Flavor, &i.Size, &i.UnitPrice, &i.Total)
	return i, err
}

const createOrderDiscount = `
INSERT INTO order_discounts (order_id, source, target_type, target_code, discount_type, discount_value, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, source, target_type, target_code, discount_type, discount_value, amount
`

type CreateOrderDiscountParams struct {
	OrderID       uuid.UUID
	Source        string
	TargetType    pgtype.Text
	TargetCode    pgtype.Text
	DiscountType  pgtype.Text
	DiscountValue pgtype.Numeric
	Amount        pgtype.Numeric
}

func (q *Queries) CreateOrderDiscount(ctx context.Context, arg CreateOrderDiscountParams) (OrderDiscount, error) {
	row := q.db.QueryRow(ctx, createOrderDiscount,
		arg.OrderID, arg.Source, arg.TargetType, arg.TargetCode, arg.DiscountType, arg.DiscountValue, arg.Amount,
	)
	var i OrderDiscount
	err := row.Scan(&i.ID, &i.OrderID, &i.Source, &i.TargetType, &i.TargetCode, &i.DiscountType, &i.DiscountValue, &i.Amount)
	return i, err
}

const getOrder = `
SELECT id, store_id, order_number, customer_id, status, payment_status,
	original_price, event_discount, loyalty_discount, total_price,
	delivery_address, inventory_consumed, created_at, updated_at
FROM orders
WHERE id = $1 AND store_id = $2
`

type GetOrderParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.StoreID)
	return scanOrder(row)
}

const getOrderForUpdate = getOrder + `
FOR UPDATE
`

// GetOrderForUpdate locks the order row so racing lifecycle transitions
// serialize on it.
func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.StoreID)
	return scanOrder(row)
}

const listOrders = `
SELECT id, store_id, order_number, customer_id, status, payment_status,
	original_price, event_discount, loyalty_discount, total_price,
	delivery_address, inventory_consumed, created_at, updated_at
FROM orders
WHERE store_id = $1
  AND ($2::text IS NULL OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListOrdersParams struct {
	StoreID uuid.UUID
	Status  pgtype.Text
	Limit   int32
	Offset  int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.StoreID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_code, style_code, quantity, price_per_item
FROM order_items
WHERE order_id = $1
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.MenuCode, &i.StyleCode, &i.Quantity, &i.PricePerItem); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrderItemCustomizations = `
SELECT id, order_item_id, item_name, change_type, quantity_change
FROM order_item_customizations
WHERE order_item_id = $1
ORDER BY item_name
`

func (q *Queries) ListOrderItemCustomizations(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemCustomization, error) {
	rows, err := q.db.Query(ctx, listOrderItemCustomizations, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItemCustomization
	for rows.Next() {
		var i OrderItemCustomization
		if err := rows.Scan(&i.ID, &i.OrderItemID, &i.ItemName, &i.ChangeType, &i.QuantityChange); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrderSideDishesByOrder = `
SELECT id, order_id, side_dish_code, quantity, unit_price, total
FROM order_side_dishes
WHERE order_id = $1
ORDER BY side_dish_code
`

func (q *Queries) ListOrderSideDishesByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderSideDish, error) {
	rows, err := q.db.Query(ctx, listOrderSideDishesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderSideDish
	for rows.Next() {
		var i OrderSideDish
		if err := rows.Scan(&i.ID, &i.OrderID, &i.SideDishCode, &i.Quantity, &i.UnitPrice, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listCakeCustomizationsByOrder = `
SELECT id, order_id, flavor, size, unit_price, total
FROM cake_customizations
WHERE order_id = $1
`

func (q *Queries) ListCakeCustomizationsByOrder(ctx context.Context, orderID uuid.UUID) ([]CakeCustomization, error) {
	rows, err := q.db.Query(ctx, listCakeCustomizationsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CakeCustomization
	for rows.Next() {
		var i CakeCustomization
		if err := rows.Scan(&i.ID, &i.OrderID, &i.Flavor, &i.Size, &i.UnitPrice, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrderDiscountsByOrder = `
SELECT id, order_id, source, target_type, target_code, discount_type, discount_value, amount
FROM order_discounts
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderDiscountsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderDiscount, error) {
	rows, err := q.db.Query(ctx, listOrderDiscountsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderDiscount
	for rows.Next() {
		var i OrderDiscount
		if err := rows.Scan(&i.ID, &i.OrderID, &i.Source, &i.TargetType, &i.TargetCode, &i.DiscountType, &i.DiscountValue, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND store_id = $2 AND status = $4
RETURNING id, store_id, order_number, customer_id, status, payment_status,
	original_price, event_discount, loyalty_discount, total_price,
	delivery_address, inventory_consumed, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	Status     string
	PrevStatus string
}

// UpdateOrderStatus is a compare-and-swap on the status column: it only
// succeeds if the order is still in PrevStatus, returning pgx.ErrNoRows
// when a concurrent transition won.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.StoreID, arg.Status, arg.PrevStatus)
	return scanOrder(row)
}

const completeOrder = `
UPDATE orders
SET status = 'COMPLETED', inventory_consumed = TRUE, updated_at = now()
WHERE id = $1 AND store_id = $2 AND status = 'DELIVERING'
RETURNING id, store_id, order_number, customer_id, status, payment_status,
	original_price, event_discount, loyalty_discount, total_price,
	delivery_address, inventory_consumed, created_at, updated_at
`

type CompleteOrderParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

// CompleteOrder flips status and inventory_consumed in one statement so the
// two can never disagree.
func (q *Queries) CompleteOrder(ctx context.Context, arg CompleteOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, completeOrder, arg.ID, arg.StoreID)
	return scanOrder(row)
}

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.StoreID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.PaymentStatus,
		&o.OriginalPrice, &o.EventDiscount, &o.LoyaltyDiscount, &o.TotalPrice,
		&o.DeliveryAddress, &o.InventoryConsumed, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
