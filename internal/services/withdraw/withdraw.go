// Package withdraw implements the withdraw-request workflow: a request is
// created pending and an admin flips it exactly once to approved or
// rejected. Approval appends the ledger outcome and the new balance snapshot
// in the same transaction as the status flip, so a failed ledger write never
// records an approval.
package withdraw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/sarrafio/api/internal/infra/pgutils"
	"github.com/sarrafio/api/internal/repos/wallets"
	pgwallets "github.com/sarrafio/api/internal/repos/wallets/postgres"
	"github.com/sarrafio/api/internal/repos/withdrawals"
	pgwithdrawals "github.com/sarrafio/api/internal/repos/withdrawals/postgres"
)

// WithdrawalTag marks ledger outcome entries appended by approvals.
const WithdrawalTag = "withdrawal"

var ErrInvalidAmount = errors.New("withdraw amount must be positive")

type Service struct {
	db          *sql.DB
	wallets     wallets.Wallets
	withdrawals withdrawals.Withdrawals
	withTx      func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB) *Service {
	s := &Service{
		db:          db,
		wallets:     pgwallets.New(db),
		withdrawals: pgwithdrawals.New(db),
	}
	s.withTx = func(ctx context.Context, fn func(*sql.Tx) error) error {
		return pgutils.WithTx(ctx, s.db, fn)
	}

	return s
}

func (s *Service) Create(ctx context.Context, userID string, amount int64) (*withdrawals.Request, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	req := &withdrawals.Request{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		Status: withdrawals.StatusPending,
	}

	err := s.withdrawals.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create withdraw request: %w", err)
	}

	return req, nil
}

// Approve flips pending→approved. The wallet's last snapshot B yields a new
// snapshot B−A alongside exactly one outcome entry of amount A; there is no
// floor at zero, a snapshot may go negative.
func (s *Service) Approve(ctx context.Context, requestID, adminID string) (*withdrawals.Request, error) {
	var out *withdrawals.Request

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		req, err := s.withdrawals.LockByID(tx, requestID)
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}

		if req.Status != withdrawals.StatusPending {
			return withdrawals.ErrNotPending
		}

		w, err := s.wallets.LockByUserID(tx, req.UserID)
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		last, err := s.wallets.LastSnapshot(tx, w.ID)
		if err != nil {
			return fmt.Errorf("read last snapshot: %w", err)
		}

		now := time.Now()
		entry := &wallets.Entry{
			ID:         ulid.Make().String(),
			WalletID:   w.ID,
			Direction:  wallets.DirectionOutcome,
			Amount:     req.Amount,
			Tag:        WithdrawalTag,
			Status:     wallets.EntryVerified,
			VerifiedBy: &adminID,
			VerifiedAt: &now,
		}

		err = s.wallets.AppendEntry(tx, entry)
		if err != nil {
			return fmt.Errorf("append outcome entry: %w", err)
		}

		err = s.wallets.AppendSnapshot(tx, w.ID, last-req.Amount)
		if err != nil {
			return fmt.Errorf("append balance snapshot: %w", err)
		}

		err = s.withdrawals.MarkApproved(tx, req.ID, adminID)
		if err != nil {
			return fmt.Errorf("mark approved: %w", err)
		}

		req.Status = withdrawals.StatusApproved
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		out = req

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("approve withdraw request: %w", err)
	}

	return out, nil
}

// Reject flips pending→rejected with a reason. No wallet mutation.
func (s *Service) Reject(ctx context.Context, requestID, adminID, reason string) (*withdrawals.Request, error) {
	var out *withdrawals.Request

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		req, err := s.withdrawals.LockByID(tx, requestID)
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}

		if req.Status != withdrawals.StatusPending {
			return withdrawals.ErrNotPending
		}

		err = s.withdrawals.MarkRejected(tx, req.ID, adminID, reason)
		if err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}

		now := time.Now()
		req.Status = withdrawals.StatusRejected
		req.RejectionReason = &reason
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		out = req

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reject withdraw request: %w", err)
	}

	return out, nil
}

func (s *Service) List(ctx context.Context, status withdrawals.Status) ([]withdrawals.Request, error) {
	out, err := s.withdrawals.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list withdraw requests: %w", err)
	}

	return out, nil
}

func (s *Service) Stats(ctx context.Context) ([]withdrawals.StatusStats, error) {
	out, err := s.withdrawals.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("withdraw stats: %w", err)
	}

	return out, nil
}
