// Package ticket is the client for the external support-ticket system. It
// carries withdrawal execution requests and cancellation refund reviews to
// the back office. Failures are logged by callers, never retried.
package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Case classifications used by this platform.
const (
	ClassWithdrawal   = "withdrawal_execution"
	ClassRefundReview = "refund_review"
)

// Case priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type Case struct {
	Subject        string `json:"subject"`
	Contact        string `json:"contact"`
	Body           string `json:"body"`
	Priority       string `json:"priority"`
	Classification string `json:"classification"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateCase(ctx context.Context, cs Case) error {
	body, err := json.Marshal(cs)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/cases", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ticketing system returned %d", resp.StatusCode)
	}
	return nil
}
