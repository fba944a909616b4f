package zarinpal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarrafio/api/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.ZarinPalConfig{
		MerchantID: "test-merchant",
		BaseURL:    srv.URL,
	})
}

func TestRequestPayment_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, requestPath, r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "test-merchant", body["merchant_id"])
		require.Equal(t, float64(50000), body["amount"])
		require.Equal(t, "https://shop.example/callback", body["callback_url"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"code": 100, "message": "Success", "authority": "A0000012345", "fee_type": "Merchant", "fee": 500},
			"errors": []
		}`))
	})

	res, err := client.RequestPayment(context.Background(), PaymentRequest{
		Amount:      50000,
		Description: "خرید اشتراک",
		CallbackURL: "https://shop.example/callback",
		Currency:    "IRT",
	})
	require.NoError(t, err)
	require.Equal(t, 100, res.Code)
	require.Equal(t, "A0000012345", res.Authority)
	require.Equal(t, int64(500), res.Fee)
}

func TestRequestPayment_ErrorsObject(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [],
			"errors": {"code": -9, "message": "The input params invalid"}
		}`))
	})

	res, err := client.RequestPayment(context.Background(), PaymentRequest{Amount: 100, CallbackURL: "x"})
	require.NoError(t, err)
	require.Equal(t, -9, res.Code)
	require.Equal(t, "The input params invalid", res.Message)
	require.Empty(t, res.Authority)
}

func TestVerifyPayment_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, verifyPath, r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "A0000012345", body["authority"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"code": 100, "message": "Verified", "ref_id": 999, "card_pan": "502229******1234"},
			"errors": []
		}`))
	})

	res, err := client.VerifyPayment(context.Background(), VerifyRequest{Amount: 50000, Authority: "A0000012345"})
	require.NoError(t, err)
	require.Equal(t, 100, res.Code)
	require.Equal(t, int64(999), res.RefID)
	require.Equal(t, "502229******1234", res.CardPan)
}

func TestVerifyPayment_HTTPError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.VerifyPayment(context.Background(), VerifyRequest{Amount: 100, Authority: "A1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestPost_MalformedBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [], "errors": []}`))
	})

	_, err := client.RequestPayment(context.Background(), PaymentRequest{Amount: 100})
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed")
}

func TestPaymentURL(t *testing.T) {
	t.Parallel()

	c := New(config.ZarinPalConfig{BaseURL: "https://payment.zarinpal.com"})
	require.Equal(t, "https://payment.zarinpal.com/pg/StartPay/A0000012345", c.PaymentURL("A0000012345"))
}
