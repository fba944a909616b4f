package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/sarrafio/api/internal/services/auth"
	"github.com/sarrafio/api/internal/services/identity"
)

type requestOTPRequest struct {
	Phone string `json:"phone"`
}

// RequestOTPHandler handles POST /api/v1/auth/otp/request
func (h *HandlerProvider) RequestOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.auth.RequestOTP(r.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPhone) {
			writeError(w, http.StatusBadRequest, "شماره موبایل نامعتبر است")
			return
		}

		writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "sent"})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type verifyOTPResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Phone         string    `json:"phone"`
	Roles         []string  `json:"roles"`
	PhoneVerified bool      `json:"phoneVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// VerifyOTPHandler handles POST /api/v1/auth/otp/verify
func (h *HandlerProvider) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, u, err := h.auth.VerifyOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidPhone):
			writeError(w, http.StatusBadRequest, "شماره موبایل نامعتبر است")
		case errors.Is(err, auth.ErrCodeExpired):
			writeError(w, http.StatusBadRequest, "کد تایید منقضی شده است")
		case errors.Is(err, auth.ErrCodeMismatch):
			writeError(w, http.StatusUnauthorized, "کد تایید اشتباه است")
		case errors.Is(err, auth.ErrAccountLocked):
			writeError(w, http.StatusForbidden, "حساب کاربری موقتا مسدود شده است")
		default:
			writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		}
		return
	}

	writeSuccess(w, http.StatusOK, verifyOTPResponse{
		Token: token,
		User: userResponse{
			ID:            u.ID,
			Phone:         u.Phone,
			Roles:         u.Roles,
			PhoneVerified: u.PhoneVerifiedAt != nil,
			CreatedAt:     u.CreatedAt,
		},
	})
}

type verifyIdentityRequest struct {
	NationalID string `json:"nationalId"`
}

// VerifyIdentityHandler handles POST /api/v1/identity/verify
func (h *HandlerProvider) VerifyIdentityHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyIdentityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.identity.Verify(r.Context(), requestUserID(r), req.NationalID)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidNationalID):
			writeError(w, http.StatusBadRequest, "کد ملی نامعتبر است")
		case errors.Is(err, identity.ErrNoMatch):
			writeError(w, http.StatusBadRequest, "کد ملی با شماره موبایل مطابقت ندارد")
		default:
			writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		}
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "verified"})
}
