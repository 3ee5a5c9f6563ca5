// Package payment implements the card gateway used at checkout. The mock
// gateway validates cards locally and approves everything except the
// designated decline numbers, which is enough for development and tests.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCard  = errors.New("invalid card")
	ErrCardExpired  = errors.New("card expired")
	ErrCardDeclined = errors.New("card declined")
)

// Card is the detail set collected at checkout. Only the last four digits
// ever leave this package.
type Card struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVV      string
}

// Authorization is a successful charge.
type Authorization struct {
	Reference string
	Last4     string
}

// Gateway authorizes a card for an amount. Implementations must not retain
// the full card number.
type Gateway interface {
	Authorize(ctx context.Context, card Card, amount decimal.Decimal) (Authorization, error)
}

// declineNumbers always fail with ErrCardDeclined so the failure path can
// be exercised end to end.
var declineNumbers = map[string]bool{
	"4000000000000002": true,
	"4000000000009995": true,
}

type MockGateway struct {
	now func() time.Time
}

func NewMockGateway() *MockGateway {
	return &MockGateway{now: time.Now}
}

func (g *MockGateway) Authorize(ctx context.Context, card Card, amount decimal.Decimal) (Authorization, error) {
	if err := validate(card, g.now()); err != nil {
		return Authorization{}, err
	}
	if !amount.IsPositive() {
		return Authorization{}, fmt.Errorf("%w: non-positive amount", ErrCardDeclined)
	}
	if declineNumbers[card.Number] {
		return Authorization{}, ErrCardDeclined
	}
	return Authorization{
		Reference: "mock-" + uuid.NewString(),
		Last4:     card.Number[len(card.Number)-4:],
	}, nil
}

func validate(card Card, now time.Time) error {
	if len(card.Number) < 12 || len(card.Number) > 19 || !luhnValid(card.Number) {
		return ErrInvalidCard
	}
	if len(card.CVV) < 3 || len(card.CVV) > 4 || !allDigits(card.CVV) {
		return ErrInvalidCard
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return ErrInvalidCard
	}
	// A card is valid through the last day of its expiry month.
	expiry := time.Date(card.ExpYear, time.Month(card.ExpMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(expiry) {
		return ErrCardExpired
	}
	return nil
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
