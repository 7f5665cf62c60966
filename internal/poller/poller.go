// Package poller implements the client side of the payment handshake: after
// the gateway redirects the payer back, the true outcome is discovered by
// polling the status endpoint rather than trusting the redirect itself, which
// can be spoofed or arrive before the webhook.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// State is the terminal state a polling run ends in.
//
// Timeout is distinct from Failed on purpose: a payment that is still
// `initiated` when attempts run out may yet resolve via webhook, so the user
// is pointed at order history instead of being told the payment failed.
type State string

const (
	StatePaid             State = "paid"
	StateFailed           State = "failed"
	StateTimeout          State = "timeout"
	StateMissingReference State = "missing_reference"
)

// Defaults mirror the storefront's return page: 20 attempts, 2s apart.
const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 20
)

// Config bounds a polling run.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Result is the outcome of one polling run.
type Result struct {
	State    State
	Attempts int
	// LastStatus is the payment status observed on the final poll.
	LastStatus string
}

// Client polls the status endpoint of a payments service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, bearerToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, token: bearerToken, http: httpClient}
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Poll watches paymentID until it resolves, attempts run out, or ctx is
// cancelled (e.g. the user navigated away). It never mutates server state.
func (c *Client) Poll(ctx context.Context, paymentID string, cfg Config) (Result, error) {
	if paymentID == "" {
		// Never assume success without a reference.
		return Result{State: StateMissingReference}, nil
	}
	cfg = cfg.withDefaults()

	var res Result
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt

		status, err := c.fetchStatus(ctx, paymentID)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, err
		}
		res.LastStatus = status
		log.Printf("[poller] attempt=%d payment_id=%s status=%s", attempt, paymentID, status)

		switch status {
		case "paid":
			res.State = StatePaid
			return res, nil
		case "failed":
			res.State = StateFailed
			return res, nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}

	res.State = StateTimeout
	return res, nil
}

func (c *Client) fetchStatus(ctx context.Context, paymentID string) (string, error) {
	url := fmt.Sprintf("%s/v1/payments/%s/status", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Status, nil
}
