package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/sarrafio/api/internal/repos/users"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(h *HandlerProvider, jwtSecret []byte, rdb *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth/otp", func(r chi.Router) {
			r.With(RateLimit(rdb, 5, time.Minute, "otp")).Post("/request", h.RequestOTPHandler)
			r.Post("/verify", h.VerifyOTPHandler)
		})

		// Invoked by the gateway, not by our clients; no auth.
		r.Get("/payments/callback", h.PaymentCallbackHandler)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(jwtSecret))

			r.Post("/payments", h.CreatePaymentHandler)
			r.Post("/payments/verify", h.VerifyPaymentHandler)
			r.Get("/wallet", h.WalletHandler)
			r.Post("/withdrawals", h.CreateWithdrawHandler)
			r.Post("/identity/verify", h.VerifyIdentityHandler)
			r.Post("/uploads", h.UploadHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(users.RoleAdmin, users.RoleSuperAdmin))

				r.Get("/withdrawals", h.ListWithdrawalsHandler)
				r.Get("/withdrawals/stats", h.WithdrawStatsHandler)
				r.Patch("/withdrawals/{requestId}", h.ProcessWithdrawHandler)
				r.Get("/users/{userId}/wallet/audit", h.WalletAuditHandler)
				r.Post("/users/{userId}/wallet/entries", h.AppendEntryHandler)
				r.Patch("/users/{userId}/wallet/entries/{entryId}", h.VerifyEntryHandler)
				r.Post("/users/{userId}/wallet/balance", h.AppendSnapshotHandler)
			})
		})
	})

	return r
}
