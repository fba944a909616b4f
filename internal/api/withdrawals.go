package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sarrafio/api/internal/repos/wallets"
	"github.com/sarrafio/api/internal/repos/withdrawals"
	"github.com/sarrafio/api/internal/services/withdraw"
)

type withdrawResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Amount          int64      `json:"amount"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	ProcessedBy     *string    `json:"processedBy,omitempty"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toWithdrawResponse(r *withdrawals.Request) withdrawResponse {
	return withdrawResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		Amount:          r.Amount,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		ProcessedBy:     r.ProcessedBy,
		ProcessedAt:     r.ProcessedAt,
		CreatedAt:       r.CreatedAt,
	}
}

type createWithdrawRequest struct {
	Amount int64 `json:"amount"`
}

// CreateWithdrawHandler handles POST /api/v1/withdrawals
func (h *HandlerProvider) CreateWithdrawHandler(w http.ResponseWriter, r *http.Request) {
	var req createWithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.withdraws.Create(r.Context(), requestUserID(r), req.Amount)
	if err != nil {
		if errors.Is(err, withdraw.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "مبلغ برداشت نامعتبر است")
			return
		}

		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	writeSuccess(w, http.StatusCreated, toWithdrawResponse(res))
}

type processWithdrawRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

// ProcessWithdrawHandler handles PATCH /api/v1/withdrawals/{requestId}
// (admin). The only accepted transitions are pending→approved and
// pending→rejected.
func (h *HandlerProvider) ProcessWithdrawHandler(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	var req processWithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	adminID := requestUserID(r)

	var (
		res *withdrawals.Request
		err error
	)

	switch req.Status {
	case string(withdrawals.StatusApproved):
		res, err = h.withdraws.Approve(r.Context(), requestID, adminID)
	case string(withdrawals.StatusRejected):
		if req.RejectionReason == "" {
			writeError(w, http.StatusBadRequest, "دلیل رد درخواست الزامی است")
			return
		}

		res, err = h.withdraws.Reject(r.Context(), requestID, adminID, req.RejectionReason)
	default:
		writeError(w, http.StatusBadRequest, "وضعیت درخواستی نامعتبر است")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, withdrawals.ErrWithdrawNotFound):
			writeError(w, http.StatusNotFound, "درخواست برداشت یافت نشد")
		case errors.Is(err, withdrawals.ErrNotPending):
			writeError(w, http.StatusBadRequest, "درخواست برداشت قبلا پردازش شده است")
		case errors.Is(err, wallets.ErrWalletNotFound):
			writeError(w, http.StatusNotFound, "کیف پول یافت نشد")
		default:
			writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		}
		return
	}

	writeSuccess(w, http.StatusOK, toWithdrawResponse(res))
}

// ListWithdrawalsHandler handles GET /api/v1/withdrawals?status= (admin)
func (h *HandlerProvider) ListWithdrawalsHandler(w http.ResponseWriter, r *http.Request) {
	status := withdrawals.Status(r.URL.Query().Get("status"))

	switch status {
	case "", withdrawals.StatusPending, withdrawals.StatusApproved, withdrawals.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "وضعیت فیلتر نامعتبر است")
		return
	}

	list, err := h.withdraws.List(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	out := make([]withdrawResponse, 0, len(list))
	for i := range list {
		out = append(out, toWithdrawResponse(&list[i]))
	}

	writeSuccess(w, http.StatusOK, out)
}

type withdrawStatsResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Total  int64  `json:"total"`
}

// WithdrawStatsHandler handles GET /api/v1/withdrawals/stats (admin)
func (h *HandlerProvider) WithdrawStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.withdraws.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	out := make([]withdrawStatsResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, withdrawStatsResponse{Status: string(s.Status), Count: s.Count, Total: s.Total})
	}

	writeSuccess(w, http.StatusOK, out)
}
