package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarrafio/api/internal/repos/withdrawals"
)

var _ withdrawals.Withdrawals = (*withdrawalsRepo)(nil)

type withdrawalsRepo struct{ db *sql.DB }

func New(db *sql.DB) *withdrawalsRepo {
	return &withdrawalsRepo{db: db}
}

const selectColumns = `
	id, user_id, amount, status, rejection_reason, processed_by, processed_at, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*withdrawals.Request, error) {
	var r withdrawals.Request

	err := row.Scan(&r.ID, &r.UserID, &r.Amount, &r.Status,
		&r.RejectionReason, &r.ProcessedBy, &r.ProcessedAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, withdrawals.ErrWithdrawNotFound
		}

		return nil, fmt.Errorf("scan withdraw request: %w", err)
	}

	return &r, nil
}

func (r *withdrawalsRepo) Create(ctx context.Context, req *withdrawals.Request) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO withdraw_requests (id, user_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, req.ID, req.UserID, req.Amount, req.Status).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert withdraw request: %w", err)
	}

	return nil
}

func (r *withdrawalsRepo) GetByID(ctx context.Context, id string) (*withdrawals.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM withdraw_requests
		WHERE id = $1
	`, id)

	return scanRequest(row)
}

func (r *withdrawalsRepo) LockByID(tx *sql.Tx, id string) (*withdrawals.Request, error) {
	row := tx.QueryRow(`
		SELECT `+selectColumns+`
		FROM withdraw_requests
		WHERE id = $1
		FOR UPDATE
	`, id)

	return scanRequest(row)
}

func (r *withdrawalsRepo) MarkApproved(tx *sql.Tx, id, adminID string) error {
	return r.flipStatus(tx, id, `
		UPDATE withdraw_requests
		SET status = 'approved', processed_by = $2, processed_at = now()
		WHERE id = $1
		  AND status = 'pending'
	`, adminID)
}

func (r *withdrawalsRepo) MarkRejected(tx *sql.Tx, id, adminID, reason string) error {
	res, err := tx.Exec(`
		UPDATE withdraw_requests
		SET status = 'rejected', rejection_reason = $3, processed_by = $2, processed_at = now()
		WHERE id = $1
		  AND status = 'pending'
	`, id, adminID, reason)
	if err != nil {
		return fmt.Errorf("mark rejected: %w", err)
	}

	return requirePendingFlip(res)
}

func (r *withdrawalsRepo) flipStatus(tx *sql.Tx, id, query, adminID string) error {
	res, err := tx.Exec(query, id, adminID)
	if err != nil {
		return fmt.Errorf("flip status: %w", err)
	}

	return requirePendingFlip(res)
}

func requirePendingFlip(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return withdrawals.ErrNotPending
	}

	return nil
}

func (r *withdrawalsRepo) List(ctx context.Context, status withdrawals.Status) ([]withdrawals.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM withdraw_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("select withdraw requests: %w", err)
	}
	defer rows.Close()

	var out []withdrawals.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *req)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate withdraw requests: %w", err)
	}

	return out, nil
}

func (r *withdrawalsRepo) Stats(ctx context.Context) ([]withdrawals.StatusStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM withdraw_requests
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("select withdraw stats: %w", err)
	}
	defer rows.Close()

	var out []withdrawals.StatusStats
	for rows.Next() {
		var s withdrawals.StatusStats

		err = rows.Scan(&s.Status, &s.Count, &s.Total)
		if err != nil {
			return nil, fmt.Errorf("scan withdraw stats: %w", err)
		}

		out = append(out, s)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate withdraw stats: %w", err)
	}

	return out, nil
}
