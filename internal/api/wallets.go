package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sarrafio/api/internal/repos/wallets"
	"github.com/sarrafio/api/internal/services/wallet"
)

type entryResponse struct {
	ID          string     `json:"id"`
	Direction   string     `json:"direction"`
	Amount      int64      `json:"amount"`
	Tag         string     `json:"tag"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	VerifiedBy  *string    `json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	EntryDate   time.Time  `json:"date"`
}

func toEntryResponse(e *wallets.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Direction:   string(e.Direction),
		Amount:      e.Amount,
		Tag:         e.Tag,
		Description: e.Description,
		Status:      string(e.Status),
		VerifiedBy:  e.VerifiedBy,
		VerifiedAt:  e.VerifiedAt,
		EntryDate:   e.EntryDate,
	}
}

type walletResponse struct {
	WalletID string          `json:"walletId"`
	Balance  int64           `json:"balance"`
	Entries  []entryResponse `json:"entries"`
}

// WalletHandler handles GET /api/v1/wallet
func (h *HandlerProvider) WalletHandler(w http.ResponseWriter, r *http.Request) {
	ov, err := h.wallets.Overview(r.Context(), requestUserID(r))
	if err != nil {
		if errors.Is(err, wallets.ErrWalletNotFound) {
			writeError(w, http.StatusNotFound, "کیف پول یافت نشد")
			return
		}

		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	entries := make([]entryResponse, 0, len(ov.Entries))
	for i := range ov.Entries {
		entries = append(entries, toEntryResponse(&ov.Entries[i]))
	}

	writeSuccess(w, http.StatusOK, walletResponse{
		WalletID: ov.WalletID,
		Balance:  ov.Balance,
		Entries:  entries,
	})
}

type appendEntryRequest struct {
	Direction   string `json:"direction"`
	Amount      int64  `json:"amount"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
	Verified    bool   `json:"verified"`
}

// AppendEntryHandler handles POST /api/v1/users/{userId}/wallet/entries
// (admin override).
func (h *HandlerProvider) AppendEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req appendEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.wallets.AppendEntry(r.Context(), userID, requestUserID(r), wallet.EntryInput{
		Direction:   wallets.Direction(req.Direction),
		Amount:      req.Amount,
		Tag:         req.Tag,
		Description: req.Description,
		Verified:    req.Verified,
	})
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidEntry) {
			writeError(w, http.StatusBadRequest, "تراکنش کیف پول نامعتبر است")
			return
		}

		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	writeSuccess(w, http.StatusCreated, toEntryResponse(entry))
}

// VerifyEntryHandler handles PATCH /api/v1/users/{userId}/wallet/entries/{entryId}
// (admin override): re-tags the entry verified and stamps the admin.
func (h *HandlerProvider) VerifyEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryId")

	err := h.wallets.VerifyEntry(r.Context(), entryID, requestUserID(r))
	if err != nil {
		if errors.Is(err, wallets.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "تراکنش کیف پول یافت نشد")
			return
		}

		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "verified"})
}

type appendSnapshotRequest struct {
	Amount int64 `json:"amount"`
}

// AppendSnapshotHandler handles POST /api/v1/users/{userId}/wallet/balance
// (admin override). The injected amount is persisted as-is.
func (h *HandlerProvider) AppendSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req appendSnapshotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.wallets.AppendSnapshot(r.Context(), userID, req.Amount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]int64{"balance": req.Amount})
}

type auditResponse struct {
	WalletID   string `json:"walletId"`
	Incomes    int64  `json:"incomes"`
	Outcomes   int64  `json:"outcomes"`
	Balance    int64  `json:"balance"`
	Drift      int64  `json:"drift"`
	Consistent bool   `json:"consistent"`
}

// WalletAuditHandler handles GET /api/v1/users/{userId}/wallet/audit (admin).
func (h *HandlerProvider) WalletAuditHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.wallets.Audit(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		if errors.Is(err, wallets.ErrWalletNotFound) {
			writeError(w, http.StatusNotFound, "کیف پول یافت نشد")
			return
		}

		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	writeSuccess(w, http.StatusOK, auditResponse{
		WalletID:   report.WalletID,
		Incomes:    report.Incomes,
		Outcomes:   report.Outcomes,
		Balance:    report.Balance,
		Drift:      report.Drift,
		Consistent: report.Consistent,
	})
}
