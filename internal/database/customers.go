package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getCustomer = `
SELECT id, name, email, order_count, total_spent, vip_level, discount_rate, last_order_at, created_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.OrderCount, &c.TotalSpent, &c.VipLevel, &c.DiscountRate, &c.LastOrderAt, &c.CreatedAt)
	return c, err
}

const createCustomer = `
INSERT INTO customers (name, email, vip_level, discount_rate)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, order_count, total_spent, vip_level, discount_rate, last_order_at, created_at
`

type CreateCustomerParams struct {
	Name         string
	Email        string
	VipLevel     int32
	DiscountRate pgtype.Numeric
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer, arg.Name, arg.Email, arg.VipLevel, arg.DiscountRate)
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.OrderCount, &c.TotalSpent, &c.VipLevel, &c.DiscountRate, &c.LastOrderAt, &c.CreatedAt)
	return c, err
}

const bumpCustomerLoyalty = `
UPDATE customers
SET order_count = order_count + 1,
	total_spent = total_spent + $2,
	last_order_at = now()
WHERE id = $1
RETURNING id, name, email, order_count, total_spent, vip_level, discount_rate, last_order_at, created_at
`

type BumpCustomerLoyaltyParams struct {
	ID     uuid.UUID
	Amount pgtype.Numeric
}

// BumpCustomerLoyalty records a completed order against the customer's
// loyalty counters. The vip level and its discount rate are recomputed by
// an out-of-band process, not here.
func (q *Queries) BumpCustomerLoyalty(ctx context.Context, arg BumpCustomerLoyaltyParams) (Customer, error) {
	row := q.db.QueryRow(ctx, bumpCustomerLoyalty, arg.ID, arg.Amount)
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.OrderCount, &c.TotalSpent, &c.VipLevel, &c.DiscountRate, &c.LastOrderAt, &c.CreatedAt)
	return c, err
}
