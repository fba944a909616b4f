package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sarrafio/api/internal/repos/payments"
	"github.com/sarrafio/api/internal/services/payment"
)

type createPaymentRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ServiceID   string `json:"serviceId"`
	OrderID     string `json:"orderId"`
	Currency    string `json:"currency"`
}

type createPaymentResponse struct {
	PaymentID       string `json:"paymentId"`
	Authority       string `json:"authority"`
	PaymentURL      string `json:"paymentUrl,omitempty"`
	Amount          int64  `json:"amount"`
	Description     string `json:"description"`
	AlreadyVerified bool   `json:"alreadyVerified,omitempty"`
}

// CreatePaymentHandler handles POST /api/v1/payments
func (h *HandlerProvider) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.payments.Create(r.Context(), payment.CreateInput{
		UserID:      requestUserID(r),
		Amount:      req.Amount,
		Description: req.Description,
		ServiceID:   req.ServiceID,
		OrderID:     req.OrderID,
		Currency:    req.Currency,
	})
	if err != nil {
		var gwErr *payment.GatewayError

		switch {
		case errors.Is(err, payment.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "مبلغ کمتر از حداقل مجاز است")
		case errors.Is(err, payment.ErrInvalidDescription):
			writeError(w, http.StatusBadRequest, "توضیحات پرداخت نامعتبر است")
		case errors.As(err, &gwErr):
			writeGatewayError(w, http.StatusBadRequest, gwErr.Message, gwErr.Code)
		default:
			writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		}
		return
	}

	writeSuccess(w, http.StatusOK, createPaymentResponse{
		PaymentID:       res.PaymentID,
		Authority:       res.Authority,
		PaymentURL:      res.PaymentURL,
		Amount:          res.Amount,
		Description:     res.Description,
		AlreadyVerified: res.AlreadyVerified,
	})
}

// PaymentCallbackHandler handles GET /api/v1/payments/callback, invoked by
// the gateway redirecting the payer back. It always answers with a redirect
// to the success or failure page.
func (h *HandlerProvider) PaymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	authority := r.URL.Query().Get("Authority")
	status := r.URL.Query().Get("Status")

	res := h.payments.HandleCallback(r.Context(), authority, status)

	if res.Succeeded {
		q := url.Values{}
		q.Set("Authority", res.Authority)
		q.Set("ref_id", fmt.Sprint(res.RefID))
		http.Redirect(w, r, "/payment/success?"+q.Encode(), http.StatusFound)
		return
	}

	q := url.Values{}
	q.Set("Authority", res.Authority)
	q.Set("error", res.Reason)
	if res.Code != 0 {
		q.Set("code", fmt.Sprint(res.Code))
	}
	http.Redirect(w, r, "/payment/failed?"+q.Encode(), http.StatusFound)
}

type verifyPaymentRequest struct {
	Authority string `json:"authority"`
	Amount    int64  `json:"amount"`
}

type verifyPaymentResponse struct {
	PaymentID string `json:"paymentId"`
	RefID     int64  `json:"refId"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	CardPan   string `json:"cardPan,omitempty"`
	Fee       int64  `json:"fee,omitempty"`
	FeeType   string `json:"feeType,omitempty"`
}

// VerifyPaymentHandler handles POST /api/v1/payments/verify
func (h *HandlerProvider) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Authority == "" {
		writeError(w, http.StatusBadRequest, "کد پیگیری ارسال نشده است")
		return
	}

	res, err := h.payments.Verify(r.Context(), requestUserID(r), req.Authority, req.Amount)
	if err != nil {
		var gwErr *payment.GatewayError

		switch {
		case errors.Is(err, payments.ErrPaymentNotFound):
			writeError(w, http.StatusNotFound, "پرداخت یافت نشد")
		case errors.Is(err, payment.ErrNotOwner):
			writeError(w, http.StatusForbidden, "دسترسی غیرمجاز")
		case errors.As(err, &gwErr):
			writeGatewayError(w, http.StatusBadRequest, gwErr.Message, gwErr.Code)
		default:
			writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		}
		return
	}

	writeSuccess(w, http.StatusOK, verifyPaymentResponse{
		PaymentID: res.PaymentID,
		RefID:     res.RefID,
		Amount:    res.Amount,
		Status:    res.Status,
		CardPan:   res.CardPan,
		Fee:       res.Fee,
		FeeType:   res.FeeType,
	})
}

// decodeBody reads a JSON body with a 1MB cap, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "بدنه درخواست خالی است")
			return false
		}

		writeError(w, http.StatusBadRequest, "بدنه درخواست نامعتبر است")
		return false
	}

	return true
}
