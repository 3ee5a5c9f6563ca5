package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Store struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type StaffUser struct {
	ID           uuid.UUID
	StoreID      uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
}

type Customer struct {
	ID           uuid.UUID
	Name         string
	Email        string
	OrderCount   int32
	TotalSpent   pgtype.Numeric
	VipLevel     int32
	DiscountRate pgtype.Numeric
	LastOrderAt  pgtype.Timestamptz
	CreatedAt    time.Time
}

type MenuItem struct {
	Code      string
	Name      string
	BasePrice pgtype.Numeric
	Available bool
}

type ServingStyle struct {
	MenuCode string
	Code     string
	Price    pgtype.Numeric
}

type Ingredient struct {
	Code      string
	Name      string
	Unit      string
	UnitPrice pgtype.Numeric
}

type SideDish struct {
	Code       string
	Name       string
	FixedPrice pgtype.Numeric
}

type CakeVariant struct {
	Flavor string
	Size   string
	Price  pgtype.Numeric
}

type EventDiscount struct {
	ID            uuid.UUID
	PromotionID   uuid.UUID
	TargetType    string
	TargetCode    string
	DiscountType  string
	DiscountValue pgtype.Numeric
	Priority      int32
}

type Order struct {
	ID                uuid.UUID
	StoreID           uuid.UUID
	OrderNumber       string
	CustomerID        pgtype.UUID
	Status            string
	PaymentStatus     string
	OriginalPrice     pgtype.Numeric
	EventDiscount     pgtype.Numeric
	LoyaltyDiscount   pgtype.Numeric
	TotalPrice        pgtype.Numeric
	DeliveryAddress   pgtype.Text
	InventoryConsumed bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	MenuCode     string
	StyleCode    string
	Quantity     int32
	PricePerItem pgtype.Numeric
}

type OrderItemCustomization struct {
	ID             uuid.UUID
	OrderItemID    uuid.UUID
	ItemName       string
	ChangeType     string
	QuantityChange int32
}

type OrderSideDish struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	SideDishCode string
	Quantity     int32
	UnitPrice    pgtype.Numeric
	Total        pgtype.Numeric
}

type CakeCustomization struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Flavor    string
	Size      string
	UnitPrice pgtype.Numeric
	Total     pgtype.Numeric
}

type OrderDiscount struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Source        string
	TargetType    pgtype.Text
	TargetCode    pgtype.Text
	DiscountType  pgtype.Text
	DiscountValue pgtype.Numeric
	Amount        pgtype.Numeric
}

type OrderReservation struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	IngredientCode string
	Quantity       int32
	Consumed       bool
	ConsumedAt     pgtype.Timestamptz
	CreatedAt      time.Time
}

type StoreStock struct {
	StoreID        uuid.UUID
	IngredientCode string
	OnHand         int32
	UpdatedAt      time.Time
}

type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Amount    pgtype.Numeric
	Status    string
	CardLast4 pgtype.Text
	CreatedAt time.Time
}
