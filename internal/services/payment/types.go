package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount rejects amounts below the gateway minimum (1000 minor
	// units).
	ErrInvalidAmount = errors.New("amount below minimum")

	// ErrInvalidDescription rejects empty or over-length descriptions.
	ErrInvalidDescription = errors.New("invalid description")

	// ErrNotOwner rejects a direct verify for a payment created by a
	// different user.
	ErrNotOwner = errors.New("payment belongs to another user")
)

// GatewayError carries a gateway rejection code with its localized message.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected payment: code %d: %s", e.Code, e.Message)
}

type CreateInput struct {
	UserID      string
	Amount      int64
	Description string
	ServiceID   string
	OrderID     string
	Currency    string
}

type CreateResult struct {
	PaymentID       string
	Authority       string
	PaymentURL      string
	Amount          int64
	Description     string
	AlreadyVerified bool
}

// CallbackResult drives the redirect after the gateway sends the payer back.
type CallbackResult struct {
	Succeeded bool
	Authority string
	RefID     int64
	Code      int
	// Reason is a machine-readable tag echoed in the failure redirect query.
	Reason string
}

type VerifyData struct {
	PaymentID string
	RefID     int64
	Amount    int64
	Status    string
	CardPan   string
	Fee       int64
	FeeType   string
}
