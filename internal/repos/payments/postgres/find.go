package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sarrafio/api/internal/repos/payments"
)

func (r *paymentsRepo) FindLiveDuplicate(
	ctx context.Context,
	userID string,
	amount int64,
	description, currency string,
	window time.Duration,
) (*payments.Payment, error) {
	cutoff := time.Now().Add(-window)

	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM payments
		WHERE user_id = $1
		  AND amount = $2
		  AND description = $3
		  AND currency = $4
		  AND status IN ('pending', 'verified')
		  AND created_at >= $5
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, amount, description, currency, cutoff)

	return scanPayment(row)
}

func (r *paymentsRepo) FindByAuthority(ctx context.Context, authority string) (*payments.Payment, error) {
	// Oldest non-verified first: authorities may be reused across retries and
	// a replayed callback must not act on an already finalized row.
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM payments
		WHERE authority = $1
		  AND status <> 'verified'
		ORDER BY created_at ASC
		LIMIT 1
	`, authority)

	p, err := scanPayment(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, payments.ErrPaymentNotFound) {
		return nil, fmt.Errorf("find non-verified by authority: %w", err)
	}

	row = r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM payments
		WHERE authority = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, authority)

	return scanPayment(row)
}
