package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sarrafio/api/internal/gateway/zarinpal"
	"github.com/sarrafio/api/internal/repos/payments"
	pgpayments "github.com/sarrafio/api/internal/repos/payments/postgres"
)

const (
	minAmount      = 1000
	maxDescription = 255

	// Identical (user, amount, description, currency) submissions within
	// this window reuse the live record instead of opening a second gateway
	// request.
	duplicateWindow = 5 * time.Minute
)

// Gateway is the outbound payment processor surface the orchestrator needs.
type Gateway interface {
	RequestPayment(ctx context.Context, req zarinpal.PaymentRequest) (zarinpal.RequestResult, error)
	VerifyPayment(ctx context.Context, req zarinpal.VerifyRequest) (zarinpal.VerifyResult, error)
	PaymentURL(authority string) string
}

type Service struct {
	payments    payments.Payments
	gateway     Gateway
	callbackURL string
}

func New(db *sql.DB, gw Gateway, callbackURL string) *Service {
	return &Service{
		payments:    pgpayments.New(db),
		gateway:     gw,
		callbackURL: callbackURL,
	}
}

// Create opens a payment attempt and returns the gateway redirect URL.
//
// Within the duplicate window the existing live record short-circuits:
// a verified duplicate returns its success payload, a pending duplicate with
// an authority returns the same authority and URL without touching the
// gateway again.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" || len(description) > maxDescription {
		return nil, ErrInvalidDescription
	}
	if in.Amount < minAmount {
		return nil, ErrInvalidAmount
	}

	currency := in.Currency
	if currency == "" {
		currency = "IRR"
	}

	p, err := s.payments.FindLiveDuplicate(ctx, in.UserID, in.Amount, description, currency, duplicateWindow)
	switch {
	case err == nil:
		if p.Status == payments.StatusVerified {
			return &CreateResult{
				PaymentID:       p.ID,
				Authority:       deref(p.Authority),
				Amount:          p.Amount,
				Description:     p.Description,
				AlreadyVerified: true,
			}, nil
		}

		if deref(p.Authority) != "" {
			return &CreateResult{
				PaymentID:   p.ID,
				Authority:   *p.Authority,
				PaymentURL:  s.gateway.PaymentURL(*p.Authority),
				Amount:      p.Amount,
				Description: p.Description,
			}, nil
		}

		// Pending record without an authority: the previous gateway request
		// never completed. Reuse the record rather than creating a second.
	case errors.Is(err, payments.ErrPaymentNotFound):
		p = &payments.Payment{
			ID:          uuid.NewString(),
			UserID:      in.UserID,
			Amount:      in.Amount,
			Description: description,
			Currency:    currency,
			ServiceID:   optional(in.ServiceID),
			OrderID:     optional(in.OrderID),
			Status:      payments.StatusPending,
		}

		err = s.payments.Create(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create payment record: %w", err)
		}
	default:
		return nil, fmt.Errorf("find live duplicate: %w", err)
	}

	res, err := s.gateway.RequestPayment(ctx, zarinpal.PaymentRequest{
		Amount:      p.Amount,
		Description: p.Description,
		CallbackURL: s.callbackURL,
		Currency:    p.Currency,
		Metadata:    map[string]string{"payment_id": p.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("request payment: %w", err)
	}

	if res.Code != zarinpal.CodeSuccess {
		ferr := s.payments.MarkFailed(ctx, p.ID, res.Code, zarinpal.StatusMessage(res.Code))
		if ferr != nil {
			slog.Error("mark payment failed", "payment_id", p.ID, "error", ferr)
		}

		return nil, &GatewayError{Code: res.Code, Message: zarinpal.StatusMessage(res.Code)}
	}

	err = s.payments.SetAuthority(ctx, p.ID, res.Authority, res.FeeType, res.Fee)
	if err != nil {
		return nil, fmt.Errorf("persist authority: %w", err)
	}

	return &CreateResult{
		PaymentID:   p.ID,
		Authority:   res.Authority,
		PaymentURL:  s.gateway.PaymentURL(res.Authority),
		Amount:      p.Amount,
		Description: p.Description,
	}, nil
}

// HandleCallback processes the gateway redirect. It never fails the HTTP
// exchange; every path resolves to a success or failure redirect.
func (s *Service) HandleCallback(ctx context.Context, authority, gatewayStatus string) CallbackResult {
	p, err := s.payments.FindByAuthority(ctx, authority)
	if err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			return CallbackResult{Authority: authority, Reason: "not_found"}
		}

		slog.Error("resolve payment by authority", "authority", authority, "error", err)

		return CallbackResult{Authority: authority, Reason: "internal_error"}
	}

	// Duplicate delivery of an already finalized payment.
	if p.Status == payments.StatusVerified {
		return CallbackResult{Succeeded: true, Authority: authority, RefID: deref(p.RefID)}
	}

	if gatewayStatus != "OK" {
		err = s.payments.MarkCancelled(ctx, p.ID)
		if err != nil {
			slog.Error("mark payment cancelled", "payment_id", p.ID, "error", err)
		}

		return CallbackResult{Authority: authority, Reason: "cancelled"}
	}

	res, err := s.gateway.VerifyPayment(ctx, zarinpal.VerifyRequest{Amount: p.Amount, Authority: authority})
	if err != nil {
		slog.Error("verify payment", "payment_id", p.ID, "error", err)

		return CallbackResult{Authority: authority, Reason: "gateway_error"}
	}

	if zarinpal.IsVerified(res.Code) {
		err = s.finalizeVerified(ctx, p.ID, res)
		if err != nil {
			slog.Error("persist verified payment", "payment_id", p.ID, "error", err)

			return CallbackResult{Authority: authority, Reason: "internal_error"}
		}

		return CallbackResult{Succeeded: true, Authority: authority, RefID: res.RefID}
	}

	err = s.payments.MarkFailed(ctx, p.ID, res.Code, zarinpal.StatusMessage(res.Code))
	if err != nil {
		slog.Error("mark payment failed", "payment_id", p.ID, "error", err)
	}

	return CallbackResult{Authority: authority, Code: res.Code, Reason: "verify_failed"}
}

// Verify is the direct API alternative to the callback, scoped to the owning
// user. Semantics mirror HandleCallback; re-verifying a finalized payment is
// an idempotent no-op returning the stored result.
func (s *Service) Verify(ctx context.Context, userID, authority string, amount int64) (*VerifyData, error) {
	p, err := s.payments.FindByAuthority(ctx, authority)
	if err != nil {
		return nil, fmt.Errorf("resolve payment: %w", err)
	}

	if p.UserID != userID {
		return nil, ErrNotOwner
	}

	if p.Status == payments.StatusVerified {
		return verifyData(p), nil
	}

	res, err := s.gateway.VerifyPayment(ctx, zarinpal.VerifyRequest{Amount: amount, Authority: authority})
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	if !zarinpal.IsVerified(res.Code) {
		ferr := s.payments.MarkFailed(ctx, p.ID, res.Code, zarinpal.StatusMessage(res.Code))
		if ferr != nil {
			slog.Error("mark payment failed", "payment_id", p.ID, "error", ferr)
		}

		return nil, &GatewayError{Code: res.Code, Message: zarinpal.StatusMessage(res.Code)}
	}

	err = s.finalizeVerified(ctx, p.ID, res)
	if err != nil {
		return nil, fmt.Errorf("persist verified payment: %w", err)
	}

	fresh, err := s.payments.GetByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reload payment: %w", err)
	}

	return verifyData(fresh), nil
}

func (s *Service) finalizeVerified(ctx context.Context, id string, res zarinpal.VerifyResult) error {
	return s.payments.MarkVerified(ctx, id, payments.VerifiedUpdate{
		RefID:    res.RefID,
		CardPan:  res.CardPan,
		CardHash: res.CardHash,
		FeeType:  res.FeeType,
		Fee:      res.Fee,
		Code:     res.Code,
		Message:  res.Message,
	})
}

func verifyData(p *payments.Payment) *VerifyData {
	return &VerifyData{
		PaymentID: p.ID,
		RefID:     deref(p.RefID),
		Amount:    p.Amount,
		Status:    string(p.Status),
		CardPan:   deref(p.CardPan),
		Fee:       deref(p.Fee),
		FeeType:   deref(p.FeeType),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
