package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusReceived      = "RECEIVED"
	OrderStatusPreparing     = "PREPARING"
	OrderStatusDelivering    = "DELIVERING"
	OrderStatusCompleted     = "COMPLETED"
	OrderStatusCancelled     = "CANCELLED"
	OrderStatusPaymentFailed = "PAYMENT_FAILED"
)

const (
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// ── Group B: Discount rules (CHECK constrained in DB) ──

const (
	DiscountTypePercent = "PERCENT"
	DiscountTypeFixed   = "FIXED"
)

const (
	DiscountTargetMenu     = "MENU"
	DiscountTargetSideDish = "SIDE_DISH"
)

const (
	DiscountSourceEvent   = "EVENT"
	DiscountSourceLoyalty = "LOYALTY"
)

// ── Group C: Staff roles (CHECK constrained in DB) ──

const (
	RoleManager  = "MANAGER"
	RoleCook     = "COOK"
	RoleDelivery = "DELIVERY"
	RoleCustomer = "CUSTOMER"
)

// ── Group D: Customization audit records (no DB constraint) ──

const (
	ChangeTypeAdd    = "ADD"
	ChangeTypeRemove = "REMOVE"
)
