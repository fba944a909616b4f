package payments

import (
	"context"
	"errors"
	"time"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Payment is one payment attempt against the gateway. Amounts are in minor
// currency units.
type Payment struct {
	ID             string
	UserID         string
	Amount         int64
	Description    string
	Currency       string
	ServiceID      *string
	OrderID        *string
	Status         Status
	Authority      *string
	RefID          *int64
	CardPan        *string
	CardHash       *string
	GatewayCode    *int
	GatewayMessage *string
	Fee            *int64
	FeeType        *string
	CreatedAt      time.Time
	VerifiedAt     *time.Time
	PaidAt         *time.Time
}

// VerifiedUpdate carries the gateway verify result persisted on success.
type VerifiedUpdate struct {
	RefID    int64
	CardPan  string
	CardHash string
	FeeType  string
	Fee      int64
	Code     int
	Message  string
}

type Payments interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)

	// FindLiveDuplicate returns the newest pending/verified payment matching
	// (user, amount, description, currency) created within the window, or
	// ErrPaymentNotFound.
	FindLiveDuplicate(ctx context.Context, userID string, amount int64, description, currency string, window time.Duration) (*Payment, error)

	// FindByAuthority prefers the oldest non-verified payment carrying the
	// authority; if every match is verified it returns the oldest verified
	// one, so replayed callbacks land on an already finalized record.
	FindByAuthority(ctx context.Context, authority string) (*Payment, error)

	SetAuthority(ctx context.Context, id, authority, feeType string, fee int64) error
	MarkVerified(ctx context.Context, id string, upd VerifiedUpdate) error
	MarkFailed(ctx context.Context, id string, code int, message string) error
	MarkCancelled(ctx context.Context, id string) error
}
