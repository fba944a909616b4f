package api

import (
	"context"
	"io"

	"github.com/sarrafio/api/internal/repos/users"
	"github.com/sarrafio/api/internal/repos/wallets"
	"github.com/sarrafio/api/internal/repos/withdrawals"
	"github.com/sarrafio/api/internal/services/payment"
	"github.com/sarrafio/api/internal/services/upload"
	"github.com/sarrafio/api/internal/services/wallet"
)

type PaymentService interface {
	Create(ctx context.Context, in payment.CreateInput) (*payment.CreateResult, error)
	HandleCallback(ctx context.Context, authority, gatewayStatus string) payment.CallbackResult
	Verify(ctx context.Context, userID, authority string, amount int64) (*payment.VerifyData, error)
}

type WithdrawService interface {
	Create(ctx context.Context, userID string, amount int64) (*withdrawals.Request, error)
	Approve(ctx context.Context, requestID, adminID string) (*withdrawals.Request, error)
	Reject(ctx context.Context, requestID, adminID, reason string) (*withdrawals.Request, error)
	List(ctx context.Context, status withdrawals.Status) ([]withdrawals.Request, error)
	Stats(ctx context.Context) ([]withdrawals.StatusStats, error)
}

type WalletService interface {
	Overview(ctx context.Context, userID string) (*wallet.Overview, error)
	AppendEntry(ctx context.Context, userID, adminID string, in wallet.EntryInput) (*wallets.Entry, error)
	VerifyEntry(ctx context.Context, entryID, adminID string) error
	AppendSnapshot(ctx context.Context, userID string, amount int64) error
	Audit(ctx context.Context, userID string) (*wallet.AuditReport, error)
}

type AuthService interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (string, *users.User, error)
}

type IdentityService interface {
	Verify(ctx context.Context, userID, nationalID string) error
}

type UploadService interface {
	Save(ctx context.Context, contentType string, size int64, r io.Reader) (*upload.Result, error)
}

// HandlerProvider wraps the domain services and exposes HTTP handlers.
type HandlerProvider struct {
	payments  PaymentService
	withdraws WithdrawService
	wallets   WalletService
	auth      AuthService
	identity  IdentityService
	uploads   UploadService
}

func NewHandler(
	payments PaymentService,
	withdraws WithdrawService,
	walletSvc WalletService,
	authSvc AuthService,
	identitySvc IdentityService,
	uploads UploadService,
) *HandlerProvider {
	return &HandlerProvider{
		payments:  payments,
		withdraws: withdraws,
		wallets:   walletSvc,
		auth:      authSvc,
		identity:  identitySvc,
		uploads:   uploads,
	}
}
