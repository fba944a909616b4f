// Package wallet serves ledger reads and the admin override surface. Admin
// overrides deliberately perform no cross-validation between injected
// snapshots and the entry sums; the drift is observable through Audit only.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sarrafio/api/internal/infra/pgutils"
	"github.com/sarrafio/api/internal/repos/wallets"
	pgwallets "github.com/sarrafio/api/internal/repos/wallets/postgres"
)

var ErrInvalidEntry = errors.New("invalid ledger entry")

type Service struct {
	db      *sql.DB
	wallets wallets.Wallets
	withTx  func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB) *Service {
	s := &Service{
		db:      db,
		wallets: pgwallets.New(db),
	}
	s.withTx = func(ctx context.Context, fn func(*sql.Tx) error) error {
		return pgutils.WithTx(ctx, s.db, fn)
	}

	return s
}

type Overview struct {
	WalletID string
	Balance  int64
	Entries  []wallets.Entry
}

func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	balance, err := s.wallets.CurrentBalance(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("current balance: %w", err)
	}

	entries, err := s.wallets.Entries(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return &Overview{WalletID: w.ID, Balance: balance, Entries: entries}, nil
}

type EntryInput struct {
	Direction   wallets.Direction
	Amount      int64
	Tag         string
	Description string
	Verified    bool
}

// AppendEntry is the admin override for injecting a ledger entry. The wallet
// is created on first use; the balance is NOT touched here, admins append
// snapshots separately.
func (s *Service) AppendEntry(ctx context.Context, userID, adminID string, in EntryInput) (*wallets.Entry, error) {
	if in.Amount <= 0 || in.Tag == "" {
		return nil, ErrInvalidEntry
	}
	if in.Direction != wallets.DirectionIncome && in.Direction != wallets.DirectionOutcome {
		return nil, ErrInvalidEntry
	}

	w, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &wallets.Entry{
		ID:          ulid.Make().String(),
		WalletID:    w.ID,
		Direction:   in.Direction,
		Amount:      in.Amount,
		Tag:         in.Tag,
		Description: in.Description,
		Status:      wallets.EntryPending,
	}
	if in.Verified {
		now := time.Now()
		entry.Status = wallets.EntryVerified
		entry.VerifiedBy = &adminID
		entry.VerifiedAt = &now
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		return s.wallets.AppendEntry(tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}

	return entry, nil
}

// VerifyEntry re-tags an existing entry as verified, stamping the admin.
func (s *Service) VerifyEntry(ctx context.Context, entryID, adminID string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.wallets.VerifyEntry(tx, entryID, adminID)
	})
	if err != nil {
		return fmt.Errorf("verify entry: %w", err)
	}

	return nil
}

// AppendSnapshot injects a balance snapshot with no validation against the
// entry sums.
func (s *Service) AppendSnapshot(ctx context.Context, userID string, amount int64) error {
	w, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		return s.wallets.AppendSnapshot(tx, w.ID, amount)
	})
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

// AuditReport compares the verified entry sums against the latest snapshot.
// The ledger never enforces this invariant; the report only makes drift
// visible.
type AuditReport struct {
	WalletID   string
	Incomes    int64
	Outcomes   int64
	Balance    int64
	Drift      int64
	Consistent bool
}

func (s *Service) Audit(ctx context.Context, userID string) (*AuditReport, error) {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	incomes, outcomes, err := s.wallets.SumVerified(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("sum verified: %w", err)
	}

	balance, err := s.wallets.CurrentBalance(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("current balance: %w", err)
	}

	drift := (incomes - outcomes) - balance

	return &AuditReport{
		WalletID:   w.ID,
		Incomes:    incomes,
		Outcomes:   outcomes,
		Balance:    balance,
		Drift:      drift,
		Consistent: drift == 0,
	}, nil
}

func (s *Service) ensureWallet(ctx context.Context, userID string) (*wallets.Wallet, error) {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, wallets.ErrWalletNotFound) {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	w, err = s.wallets.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	return w, nil
}
