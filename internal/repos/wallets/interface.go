package wallets

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrEntryNotFound  = errors.New("ledger entry not found")
)

type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionOutcome Direction = "outcome"
)

type EntryStatus string

const (
	EntryPending  EntryStatus = "pending"
	EntryVerified EntryStatus = "verified"
	EntryRejected EntryStatus = "rejected"
)

type Wallet struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// Entry is one row of the append-only ledger.
type Entry struct {
	ID          string
	WalletID    string
	Direction   Direction
	Amount      int64
	Tag         string
	Description string
	Status      EntryStatus
	VerifiedBy  *string
	VerifiedAt  *time.Time
	EntryDate   time.Time
	Seq         int64
}

// Snapshot is a point-in-time recorded balance. The current balance is the
// highest-seq snapshot, never a recomputation from entries.
type Snapshot struct {
	Seq       int64
	Amount    int64
	UpdatedAt time.Time
}

type Wallets interface {
	Create(ctx context.Context, userID string) (*Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*Wallet, error)

	// LockByUserID takes the wallet row FOR UPDATE so concurrent approvals
	// serialize on the ledger.
	LockByUserID(tx *sql.Tx, userID string) (*Wallet, error)

	// LastSnapshot reads the latest snapshot amount inside tx; a wallet with
	// no snapshots yet reads as zero.
	LastSnapshot(tx *sql.Tx, walletID string) (int64, error)

	AppendEntry(tx *sql.Tx, e *Entry) error
	AppendSnapshot(tx *sql.Tx, walletID string, amount int64) error

	Entries(ctx context.Context, walletID string) ([]Entry, error)
	CurrentBalance(ctx context.Context, walletID string) (int64, error)

	VerifyEntry(tx *sql.Tx, entryID, adminID string) error

	// SumVerified totals verified incomes and outcomes; used by the audit
	// report, never by balance reads.
	SumVerified(ctx context.Context, walletID string) (incomes, outcomes int64, err error)
}
