package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarrafio/api/internal/repos/wallets"
)

func (r *walletsRepo) LastSnapshot(tx *sql.Tx, walletID string) (int64, error) {
	var amount int64

	err := tx.QueryRow(`
		SELECT amount
		FROM wallet_balances
		WHERE wallet_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, walletID).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("last snapshot: %w", err)
	}

	return amount, nil
}

func (r *walletsRepo) AppendEntry(tx *sql.Tx, e *wallets.Entry) error {
	err := tx.QueryRow(`
		INSERT INTO wallet_entries
			(id, wallet_id, direction, amount, tag, description, status, verified_by, verified_at, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
		RETURNING entry_date, seq
	`, e.ID, e.WalletID, e.Direction, e.Amount, e.Tag, e.Description,
		e.Status, e.VerifiedBy, e.VerifiedAt, nullableTime(e.EntryDate)).
		Scan(&e.EntryDate, &e.Seq)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	return nil
}

func (r *walletsRepo) AppendSnapshot(tx *sql.Tx, walletID string, amount int64) error {
	_, err := tx.Exec(`
		INSERT INTO wallet_balances (wallet_id, amount)
		VALUES ($1, $2)
	`, walletID, amount)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

func (r *walletsRepo) Entries(ctx context.Context, walletID string) ([]wallets.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, direction, amount, tag, description,
		       status, verified_by, verified_at, entry_date, seq
		FROM wallet_entries
		WHERE wallet_id = $1
		ORDER BY seq ASC
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	var out []wallets.Entry
	for rows.Next() {
		var e wallets.Entry

		err = rows.Scan(&e.ID, &e.WalletID, &e.Direction, &e.Amount, &e.Tag,
			&e.Description, &e.Status, &e.VerifiedBy, &e.VerifiedAt, &e.EntryDate, &e.Seq)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		out = append(out, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}

func (r *walletsRepo) CurrentBalance(ctx context.Context, walletID string) (int64, error) {
	var amount int64

	err := r.db.QueryRowContext(ctx, `
		SELECT amount
		FROM wallet_balances
		WHERE wallet_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, walletID).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("current balance: %w", err)
	}

	return amount, nil
}

func (r *walletsRepo) VerifyEntry(tx *sql.Tx, entryID, adminID string) error {
	res, err := tx.Exec(`
		UPDATE wallet_entries
		SET status = 'verified', verified_by = $2, verified_at = now()
		WHERE id = $1
	`, entryID, adminID)
	if err != nil {
		return fmt.Errorf("verify entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return wallets.ErrEntryNotFound
	}

	return nil
}

func (r *walletsRepo) SumVerified(ctx context.Context, walletID string) (int64, int64, error) {
	var incomes, outcomes int64

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'outcome'), 0)
		FROM wallet_entries
		WHERE wallet_id = $1
		  AND status = 'verified'
	`, walletID).Scan(&incomes, &outcomes)
	if err != nil {
		return 0, 0, fmt.Errorf("sum verified entries: %w", err)
	}

	return incomes, outcomes, nil
}
