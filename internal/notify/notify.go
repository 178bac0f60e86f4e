// Package notify is the client for the external notification service. Every
// send is fire-and-forget from the platform's point of view: callers log
// failures and move on, a notification never blocks or rolls back a
// financial write.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Template identifiers recognized by the notification service.
const (
	TemplateDonationReceipt = "donation_receipt"
	TemplateOwnerDonation   = "owner_donation"
	TemplateSecurityCode    = "security_code"
	TemplateWithdrawal      = "withdrawal_requested"
	TemplateCancellation    = "campaign_cancelled"
)

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

type message struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params,omitempty"`
}

// Send posts one templated message. A non-2xx reply is an error so the
// caller can log it; it is never retried here.
func (c *Client) Send(ctx context.Context, to, template string, params map[string]string) error {
	body, err := json.Marshal(message{To: to, Template: template, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
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
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}
	return nil
}
