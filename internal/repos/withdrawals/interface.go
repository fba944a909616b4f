package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrWithdrawNotFound = errors.New("withdraw request not found")

	// ErrNotPending guards the single allowed transition: once a request
	// leaves pending its status is immutable.
	ErrNotPending = errors.New("withdraw request is not pending")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Request struct {
	ID              string
	UserID          string
	Amount          int64
	Status          Status
	RejectionReason *string
	ProcessedBy     *string
	ProcessedAt     *time.Time
	CreatedAt       time.Time
}

// StatusStats is one row of the per-status aggregate (count + amount sum).
type StatusStats struct {
	Status Status
	Count  int64
	Total  int64
}

type Withdrawals interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)

	// LockByID takes the request row FOR UPDATE for the approve/reject flow.
	LockByID(tx *sql.Tx, id string) (*Request, error)

	MarkApproved(tx *sql.Tx, id, adminID string) error
	MarkRejected(tx *sql.Tx, id, adminID, reason string) error

	// List returns requests newest first, optionally filtered by status
	// (empty status = all).
	List(ctx context.Context, status Status) ([]Request, error)
	Stats(ctx context.Context) ([]StatusStats, error)
}
