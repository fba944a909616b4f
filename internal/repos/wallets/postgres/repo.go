package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarrafio/api/internal/repos/wallets"
)

var _ wallets.Wallets = (*walletsRepo)(nil)

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type walletsRepo struct{ db *sql.DB }

func New(db *sql.DB) *walletsRepo {
	return &walletsRepo{db: db}
}

func (r *walletsRepo) Create(ctx context.Context, userID string) (*wallets.Wallet, error) {
	w := wallets.Wallet{ID: uuid.NewString(), UserID: userID}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO wallets (id, user_id)
		VALUES ($1, $2)
		RETURNING created_at
	`, w.ID, w.UserID).Scan(&w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert wallet: %w", err)
	}

	return &w, nil
}

func (r *walletsRepo) GetByUserID(ctx context.Context, userID string) (*wallets.Wallet, error) {
	var w wallets.Wallet

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at
		FROM wallets
		WHERE user_id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallets.ErrWalletNotFound
		}

		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return &w, nil
}

func (r *walletsRepo) LockByUserID(tx *sql.Tx, userID string) (*wallets.Wallet, error) {
	var w wallets.Wallet

	err := tx.QueryRow(`
		SELECT id, user_id, created_at
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&w.ID, &w.UserID, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallets.ErrWalletNotFound
		}

		return nil, fmt.Errorf("lock wallet: %w", err)
	}

	return &w, nil
}
