package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarrafio/api/internal/repos/payments"
)

var _ payments.Payments = (*paymentsRepo)(nil)

type paymentsRepo struct{ db *sql.DB }

func New(db *sql.DB) *paymentsRepo {
	return &paymentsRepo{db: db}
}

const selectColumns = `
	id, user_id, amount, description, currency, service_id, order_id,
	status, authority, ref_id, card_pan, card_hash, gateway_code,
	gateway_message, fee, fee_type, created_at, verified_at, paid_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*payments.Payment, error) {
	var p payments.Payment

	err := row.Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Description, &p.Currency,
		&p.ServiceID, &p.OrderID, &p.Status, &p.Authority, &p.RefID,
		&p.CardPan, &p.CardHash, &p.GatewayCode, &p.GatewayMessage,
		&p.Fee, &p.FeeType, &p.CreatedAt, &p.VerifiedAt, &p.PaidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payments.ErrPaymentNotFound
		}

		return nil, fmt.Errorf("scan payment: %w", err)
	}

	return &p, nil
}

func (r *paymentsRepo) Create(ctx context.Context, p *payments.Payment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (id, user_id, amount, description, currency, service_id, order_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, p.ID, p.UserID, p.Amount, p.Description, p.Currency, p.ServiceID, p.OrderID, p.Status).
		Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

func (r *paymentsRepo) GetByID(ctx context.Context, id string) (*payments.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM payments
		WHERE id = $1
	`, id)

	return scanPayment(row)
}
