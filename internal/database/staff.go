package database

import (
	"context"

	"github.com/google/uuid"
)

const getStaffByEmail = `
SELECT id, store_id, name, email, password_hash, role, active, created_at
FROM staff_users
WHERE email = $1 AND active
`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (StaffUser, error) {
	row := q.db.QueryRow(ctx, getStaffByEmail, email)
	var u StaffUser
	err := row.Scan(&u.ID, &u.StoreID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	return u, err
}

const getStaffUser = `
SELECT id, store_id, name, email, password_hash, role, active, created_at
FROM staff_users
WHERE id = $1
`

func (q *Queries) GetStaffUser(ctx context.Context, id uuid.UUID) (StaffUser, error) {
	row := q.db.QueryRow(ctx, getStaffUser, id)
	var u StaffUser
	err := row.Scan(&u.ID, &u.StoreID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	return u, err
}

const createStaffUser = `
INSERT INTO staff_users (store_id, name, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, store_id, name, email, password_hash, role, active, created_at
`

type CreateStaffUserParams struct {
	StoreID      uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateStaffUser(ctx context.Context, arg CreateStaffUserParams) (StaffUser, error) {
	row := q.db.QueryRow(ctx, createStaffUser, arg.StoreID, arg.Name, arg.Email, arg.PasswordHash, arg.Role)
	var u StaffUser
	err := row.Scan(&u.ID, &u.StoreID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	return u, err
}

const createStore = `
INSERT INTO stores (name)
VALUES ($1)
RETURNING id, name, created_at
`

func (q *Queries) CreateStore(ctx context.Context, name string) (Store, error) {
	row := q.db.QueryRow(ctx, createStore, name)
	var s Store
	err := row.Scan(&s.ID, &s.Name, &s.CreatedAt)
	return s, err
}
