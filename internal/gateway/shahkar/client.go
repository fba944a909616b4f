// Package shahkar is the outbound client for the national identity-matching
// service: it answers whether a national ID and a mobile number belong to
// the same person.
package shahkar

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sarrafio/api/internal/config"
)

const matchPath = "/api/v1/identity/match"

type Client struct {
	http *resty.Client
}

func New(cfg config.ShahkarConfig) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetHeader("Authorization", "Bearer "+cfg.APIKey),
	}
}

type matchRequest struct {
	NationalID string `json:"nationalId"`
	Mobile     string `json:"mobile"`
}

type matchResponse struct {
	Matched bool   `json:"matched"`
	Message string `json:"message"`
}

// Match reports whether nationalID and mobile belong to one person.
func (c *Client) Match(ctx context.Context, nationalID, mobile string) (bool, error) {
	var out matchResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(matchRequest{NationalID: nationalID, Mobile: mobile}).
		SetResult(&out).
		Post(matchPath)
	if err != nil {
		return false, fmt.Errorf("post identity match: %w", err)
	}

	if resp.IsError() {
		return false, fmt.Errorf("identity match: unexpected status %d", resp.StatusCode())
	}

	return out.Matched, nil
}
