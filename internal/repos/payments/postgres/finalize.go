package payments

import (
	"context"
	"fmt"

	"github.com/sarrafio/api/internal/repos/payments"
)

func (r *paymentsRepo) SetAuthority(ctx context.Context, id, authority, feeType string, fee int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET authority = $2, fee_type = $3, fee = $4
		WHERE id = $1
	`, id, authority, feeType, fee)
	if err != nil {
		return fmt.Errorf("set authority: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return payments.ErrPaymentNotFound
	}

	return nil
}

func (r *paymentsRepo) MarkVerified(ctx context.Context, id string, upd payments.VerifiedUpdate) error {
	// Zero affected rows means the record is already verified;
	// re-verification is a no-op so the first result stays immutable.
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'verified',
		    ref_id = $2,
		    card_pan = NULLIF($3, ''),
		    card_hash = NULLIF($4, ''),
		    fee_type = COALESCE(NULLIF($5, ''), fee_type),
		    fee = COALESCE(NULLIF($6, 0), fee),
		    gateway_code = $7,
		    gateway_message = $8,
		    verified_at = now(),
		    paid_at = now()
		WHERE id = $1
		  AND status <> 'verified'
	`, id, upd.RefID, upd.CardPan, upd.CardHash, upd.FeeType, upd.Fee, upd.Code, upd.Message)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	return nil
}

func (r *paymentsRepo) MarkFailed(ctx context.Context, id string, code int, message string) error {
	// Zero affected rows: record already left pending, keep the terminal state.
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'failed', gateway_code = $2, gateway_message = $3
		WHERE id = $1
		  AND status = 'pending'
	`, id, code, message)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	return nil
}

func (r *paymentsRepo) MarkCancelled(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'cancelled'
		WHERE id = $1
		  AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}

	return nil
}
