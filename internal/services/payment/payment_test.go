package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sarrafio/api/internal/gateway/zarinpal"
	"github.com/sarrafio/api/internal/repos/payments"
)

// fakeRepo keeps payments in memory and mimics the repository's lookup
// preference rules closely enough for orchestration tests.
type fakeRepo struct {
	records map[string]*payments.Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*payments.Payment{}}
}

func (f *fakeRepo) Create(_ context.Context, p *payments.Payment) error {
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	f.records[cp.ID] = &cp

	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*payments.Payment, error) {
	p, ok := f.records[id]
	if !ok {
		return nil, payments.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) FindLiveDuplicate(_ context.Context, userID string, amount int64, description, currency string, window time.Duration) (*payments.Payment, error) {
	cutoff := time.Now().Add(-window)

	var newest *payments.Payment
	for _, p := range f.records {
		if p.UserID != userID || p.Amount != amount || p.Description != description || p.Currency != currency {
			continue
		}
		if p.Status != payments.StatusPending && p.Status != payments.StatusVerified {
			continue
		}
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}

	if newest == nil {
		return nil, payments.ErrPaymentNotFound
	}
	cp := *newest
	return &cp, nil
}

func (f *fakeRepo) FindByAuthority(_ context.Context, authority string) (*payments.Payment, error) {
	var nonVerified, verified *payments.Payment
	for _, p := range f.records {
		if p.Authority == nil || *p.Authority != authority {
			continue
		}
		if p.Status == payments.StatusVerified {
			if verified == nil || p.CreatedAt.Before(verified.CreatedAt) {
				verified = p
			}
			continue
		}
		if nonVerified == nil || p.CreatedAt.Before(nonVerified.CreatedAt) {
			nonVerified = p
		}
	}

	switch {
	case nonVerified != nil:
		cp := *nonVerified
		return &cp, nil
	case verified != nil:
		cp := *verified
		return &cp, nil
	default:
		return nil, payments.ErrPaymentNotFound
	}
}

func (f *fakeRepo) SetAuthority(_ context.Context, id, authority, feeType string, fee int64) error {
	p, ok := f.records[id]
	if !ok {
		return payments.ErrPaymentNotFound
	}
	p.Authority = &authority
	p.FeeType = &feeType
	p.Fee = &fee
	return nil
}

func (f *fakeRepo) MarkVerified(_ context.Context, id string, upd payments.VerifiedUpdate) error {
	p, ok := f.records[id]
	if !ok || p.Status == payments.StatusVerified {
		return nil
	}
	now := time.Now()
	p.Status = payments.StatusVerified
	p.RefID = &upd.RefID
	p.CardPan = &upd.CardPan
	p.CardHash = &upd.CardHash
	p.FeeType = &upd.FeeType
	p.Fee = &upd.Fee
	p.GatewayCode = &upd.Code
	p.GatewayMessage = &upd.Message
	p.VerifiedAt = &now
	p.PaidAt = &now
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id string, code int, message string) error {
	p, ok := f.records[id]
	if !ok || p.Status != payments.StatusPending {
		return nil
	}
	p.Status = payments.StatusFailed
	p.GatewayCode = &code
	p.GatewayMessage = &message
	return nil
}

func (f *fakeRepo) MarkCancelled(_ context.Context, id string) error {
	p, ok := f.records[id]
	if !ok || p.Status != payments.StatusPending {
		return nil
	}
	p.Status = payments.StatusCancelled
	return nil
}

// fakeGateway scripts RequestPayment/VerifyPayment responses and records
// how many times each was called.
type fakeGateway struct {
	requestRes   zarinpal.RequestResult
	requestErr   error
	requestCalls int

	verifyRes   zarinpal.VerifyResult
	verifyErr   error
	verifyCalls int
}

func (g *fakeGateway) RequestPayment(_ context.Context, _ zarinpal.PaymentRequest) (zarinpal.RequestResult, error) {
	g.requestCalls++
	return g.requestRes, g.requestErr
}

func (g *fakeGateway) VerifyPayment(_ context.Context, _ zarinpal.VerifyRequest) (zarinpal.VerifyResult, error) {
	g.verifyCalls++
	return g.verifyRes, g.verifyErr
}

func (g *fakeGateway) PaymentURL(authority string) string {
	return "https://gateway.test/pg/StartPay/" + authority
}

func newTestService(repo *fakeRepo, gw *fakeGateway) *Service {
	return &Service{
		payments:    repo,
		gateway:     gw,
		callbackURL: "https://shop.test/callback",
	}
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo(), &fakeGateway{})

	tests := []struct {
		name    string
		input   CreateInput
		wantErr error
	}{
		{
			name:    "amount_below_minimum",
			input:   CreateInput{UserID: "u1", Amount: 999, Description: "شارژ"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "blank_description",
			input:   CreateInput{UserID: "u1", Amount: 5000, Description: "   "},
			wantErr: ErrInvalidDescription,
		},
		{
			name:    "oversized_description",
			input:   CreateInput{UserID: "u1", Amount: 5000, Description: string(make([]byte, 300))},
			wantErr: ErrInvalidDescription,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Create(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_HappyPath(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	gw := &fakeGateway{
		requestRes: zarinpal.RequestResult{Code: 100, Authority: "A123", FeeType: "Merchant", Fee: 500},
	}
	svc := newTestService(repo, gw)

	res, err := svc.Create(context.Background(), CreateInput{
		UserID:      "u1",
		Amount:      50000,
		Description: "خرید سرویس",
	})
	require.NoError(t, err)
	require.Equal(t, "A123", res.Authority)
	require.Equal(t, "https://gateway.test/pg/StartPay/A123", res.PaymentURL)
	require.False(t, res.AlreadyVerified)
	require.Equal(t, 1, gw.requestCalls)

	stored, err := repo.GetByID(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, payments.StatusPending, stored.Status)
	require.Equal(t, "A123", *stored.Authority)
	require.Equal(t, "IRR", stored.Currency)
}

func TestCreate_DuplicateWithinWindow_ReusesAuthority(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	gw := &fakeGateway{
		requestRes: zarinpal.RequestResult{Code: 100, Authority: "A123"},
	}
	svc := newTestService(repo, gw)

	first, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Amount: 50000, Description: "تمدید"})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Amount: 50000, Description: "تمدید"})
	require.NoError(t, err)

	require.Equal(t, first.PaymentID, second.PaymentID)
	require.Equal(t, "A123", second.Authority)
	require.Equal(t, 1, gw.requestCalls, "duplicate must not open a second gateway request")
}

func TestCreate_VerifiedDuplicate_ReturnsAlreadyVerified(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A777"
	repo.records["p1"] = &payments.Payment{
		ID:          "p1",
		UserID:      "u1",
		Amount:      50000,
		Description: "تمدید",
		Currency:    "IRR",
		Status:      payments.StatusVerified,
		Authority:   &authority,
		CreatedAt:   time.Now(),
	}

	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	res, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Amount: 50000, Description: "تمدید"})
	require.NoError(t, err)
	require.True(t, res.AlreadyVerified)
	require.Equal(t, "p1", res.PaymentID)
	require.Zero(t, gw.requestCalls)
}

func TestCreate_ExpiredDuplicate_CreatesNewRecord(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A111"
	repo.records["old"] = &payments.Payment{
		ID:          "old",
		UserID:      "u1",
		Amount:      50000,
		Description: "تمدید",
		Currency:    "IRR",
		Status:      payments.StatusPending,
		Authority:   &authority,
		CreatedAt:   time.Now().Add(-10 * time.Minute),
	}

	gw := &fakeGateway{requestRes: zarinpal.RequestResult{Code: 100, Authority: "A222"}}
	svc := newTestService(repo, gw)

	res, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Amount: 50000, Description: "تمدید"})
	require.NoError(t, err)
	require.NotEqual(t, "old", res.PaymentID)
	require.Equal(t, "A222", res.Authority)
	require.Equal(t, 1, gw.requestCalls)
}

func TestCreate_GatewayRejection_MarksFailed(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	gw := &fakeGateway{requestRes: zarinpal.RequestResult{Code: 102}}
	svc := newTestService(repo, gw)

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Amount: 50000, Description: "شارژ"})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, 102, gwErr.Code)
	require.NotEmpty(t, gwErr.Message)

	require.Len(t, repo.records, 1)
	for _, p := range repo.records {
		require.Equal(t, payments.StatusFailed, p.Status)
	}
}

func TestHandleCallback_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		UserID:    "u1",
		Amount:    50000,
		Status:    payments.StatusPending,
		Authority: &authority,
		CreatedAt: time.Now(),
	}

	gw := &fakeGateway{verifyRes: zarinpal.VerifyResult{Code: 100, RefID: 999, CardPan: "502229******1234"}}
	svc := newTestService(repo, gw)

	res := svc.HandleCallback(context.Background(), "A123", "OK")
	require.True(t, res.Succeeded)
	require.Equal(t, int64(999), res.RefID)

	stored := repo.records["p1"]
	require.Equal(t, payments.StatusVerified, stored.Status)
	require.Equal(t, int64(999), *stored.RefID)
	require.NotNil(t, stored.VerifiedAt)
}

func TestHandleCallback_UserCancelled(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		Status:    payments.StatusPending,
		Authority: &authority,
		CreatedAt: time.Now(),
	}

	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	res := svc.HandleCallback(context.Background(), "A123", "NOK")
	require.False(t, res.Succeeded)
	require.Equal(t, "cancelled", res.Reason)
	require.Equal(t, payments.StatusCancelled, repo.records["p1"].Status)
	require.Zero(t, gw.verifyCalls)
}

func TestHandleCallback_ReplayedOnVerified(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	refID := int64(999)
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		Status:    payments.StatusVerified,
		Authority: &authority,
		RefID:     &refID,
		CreatedAt: time.Now(),
	}

	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	res := svc.HandleCallback(context.Background(), "A123", "OK")
	require.True(t, res.Succeeded)
	require.Equal(t, int64(999), res.RefID)
	require.Zero(t, gw.verifyCalls, "replayed callback must not re-verify")
}

func TestHandleCallback_UnknownAuthority(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo(), &fakeGateway{})

	res := svc.HandleCallback(context.Background(), "A404", "OK")
	require.False(t, res.Succeeded)
	require.Equal(t, "not_found", res.Reason)
}

func TestHandleCallback_VerifyRejected(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		Status:    payments.StatusPending,
		Authority: &authority,
		CreatedAt: time.Now(),
	}

	gw := &fakeGateway{verifyRes: zarinpal.VerifyResult{Code: 103}}
	svc := newTestService(repo, gw)

	res := svc.HandleCallback(context.Background(), "A123", "OK")
	require.False(t, res.Succeeded)
	require.Equal(t, "verify_failed", res.Reason)
	require.Equal(t, 103, res.Code)
	require.Equal(t, payments.StatusFailed, repo.records["p1"].Status)
}

func TestVerify_OwnerCheck(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		UserID:    "u1",
		Status:    payments.StatusPending,
		Authority: &authority,
		CreatedAt: time.Now(),
	}

	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.Verify(context.Background(), "intruder", "A123", 50000)
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestVerify_IdempotentOnVerified(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	refID := int64(999)
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		UserID:    "u1",
		Amount:    50000,
		Status:    payments.StatusVerified,
		Authority: &authority,
		RefID:     &refID,
		CreatedAt: time.Now(),
	}

	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	data, err := svc.Verify(context.Background(), "u1", "A123", 50000)
	require.NoError(t, err)
	require.Equal(t, int64(999), data.RefID)
	require.Equal(t, "verified", data.Status)
	require.Zero(t, gw.verifyCalls)
}

func TestVerify_GatewayRejection(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	authority := "A123"
	repo.records["p1"] = &payments.Payment{
		ID:        "p1",
		UserID:    "u1",
		Amount:    50000,
		Status:    payments.StatusPending,
		Authority: &authority,
		CreatedAt: time.Now(),
	}

	gw := &fakeGateway{verifyRes: zarinpal.VerifyResult{Code: 106}}
	svc := newTestService(repo, gw)

	_, err := svc.Verify(context.Background(), "u1", "A123", 50000)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, 106, gwErr.Code)
	require.Equal(t, payments.StatusFailed, repo.records["p1"].Status)
}

func TestVerify_UnknownAuthority(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo(), &fakeGateway{})

	_, err := svc.Verify(context.Background(), "u1", "A404", 50000)
	require.True(t, errors.Is(err, payments.ErrPaymentNotFound))
}
