// Package verification talks to the external verification authority that
// knows whether a voucher was already consumed outside this system.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInconclusive means the authority could not give a definitive answer:
// transport failure, non-2xx status, or an unparsable body. Callers must
// never treat it as "not redeemed".
var ErrInconclusive = errors.New("verification check inconclusive")

// Config holds client configuration.
type Config struct {
	// Endpoint is the authority's redemption-check URL.
	Endpoint string
	// Timeout bounds each check so a slow upstream cannot stall an
	// allocation request. Defaults to 3s.
	Timeout time.Duration
}

// Client queries the external verification authority.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a verification client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type checkRequest struct {
	VoucherID string `json:"voucherId"`
}

type checkResponse struct {
	IsRedeemed *bool `json:"isRedeemed"`
}

// CheckRedeemed asks the authority whether the voucher was already redeemed.
// It returns a definitive answer or ErrInconclusive; there is no "probably"
// path.
func (c *Client) CheckRedeemed(ctx context.Context, voucherID string) (bool, error) {
	body, err := json.Marshal(checkRequest{VoucherID: voucherID})
	if err != nil {
		return false, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInconclusive, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: unexpected status %d", ErrInconclusive, resp.StatusCode)
	}

	var checkResp checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&checkResp); err != nil {
		return false, fmt.Errorf("%w: malformed response body", ErrInconclusive)
	}
	if checkResp.IsRedeemed == nil {
		return false, fmt.Errorf("%w: response missing isRedeemed", ErrInconclusive)
	}

	return *checkResp.IsRedeemed, nil
}
