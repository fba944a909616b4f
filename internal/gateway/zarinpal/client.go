// Package zarinpal is the outbound client for the ZarinPal payment gateway:
// one call to obtain an authority, one call to verify, and a pure URL
// template for the redirect. A single HTTP failure surfaces to the caller;
// there is no retry policy.
package zarinpal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sarrafio/api/internal/config"
)

const (
	requestPath = "/pg/v4/payment/request.json"
	verifyPath  = "/pg/v4/payment/verify.json"
	startPath   = "/pg/StartPay/"
)

type Client struct {
	http       *resty.Client
	merchantID string
	baseURL    string
}

func New(cfg config.ZarinPalConfig) *Client {
	return &Client{
		http:       resty.New().SetBaseURL(cfg.BaseURL),
		merchantID: cfg.MerchantID,
		baseURL:    cfg.BaseURL,
	}
}

type PaymentRequest struct {
	Amount      int64
	Description string
	CallbackURL string
	Currency    string
	Metadata    map[string]string
}

type RequestResult struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Authority string `json:"authority"`
	FeeType   string `json:"fee_type"`
	Fee       int64  `json:"fee"`
}

type VerifyRequest struct {
	Amount    int64
	Authority string
}

type VerifyResult struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	RefID    int64  `json:"ref_id"`
	CardPan  string `json:"card_pan"`
	CardHash string `json:"card_hash"`
	FeeType  string `json:"fee_type"`
	Fee      int64  `json:"fee"`
}

// envelope is the gateway's response wrapper. Both fields arrive either as
// an object or as an empty array, so they stay raw until probed.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type gatewayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) RequestPayment(ctx context.Context, req PaymentRequest) (RequestResult, error) {
	body := map[string]any{
		"merchant_id":  c.merchantID,
		"amount":       req.Amount,
		"callback_url": req.CallbackURL,
		"description":  req.Description,
		"currency":     req.Currency,
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out RequestResult

	err := c.post(ctx, requestPath, body, &out, &out.Code, &out.Message)
	if err != nil {
		return RequestResult{}, err
	}

	return out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	body := map[string]any{
		"merchant_id": c.merchantID,
		"amount":      req.Amount,
		"authority":   req.Authority,
	}

	var out VerifyResult

	err := c.post(ctx, verifyPath, body, &out, &out.Code, &out.Message)
	if err != nil {
		return VerifyResult{}, err
	}

	return out, nil
}

// PaymentURL builds the redirect target for an authority. Pure string
// templating, no network call.
func (c *Client) PaymentURL(authority string) string {
	return c.baseURL + startPath + authority
}

func (c *Client) post(ctx context.Context, path string, body any, data any, code *int, message *string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}

	if resp.IsError() {
		return fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode())
	}

	var env envelope

	err = json.Unmarshal(resp.Body(), &env)
	if err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	// A populated data object carries the status code even for rejections.
	if jsonObject(env.Data) {
		err = json.Unmarshal(env.Data, data)
		if err != nil {
			return fmt.Errorf("decode %s data: %w", path, err)
		}

		return nil
	}

	if jsonObject(env.Errors) {
		var gwErr gatewayError

		err = json.Unmarshal(env.Errors, &gwErr)
		if err != nil {
			return fmt.Errorf("decode %s errors: %w", path, err)
		}

		*code = gwErr.Code
		*message = gwErr.Message

		return nil
	}

	return fmt.Errorf("post %s: malformed response body", path)
}

func jsonObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
