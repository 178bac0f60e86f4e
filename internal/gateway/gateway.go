// Package gateway wraps the payment gateway behind a small interface. The
// confirmation pipeline never trusts webhook bodies; it always fetches the
// payment from the gateway by identifier through this package.
package gateway

import "context"

// Payment statuses as the pipeline sees them.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

// IntentRequest describes a payment to be created at the gateway. The total
// is what the donor is charged; the split behind it is persisted by the
// caller, keyed by OrderID.
type IntentRequest struct {
	OrderID    string
	TotalCents int64
	DonorName  string
	DonorEmail string
}

// Intent is the gateway's answer to a create request: where to send the
// donor's browser.
type Intent struct {
	Token       string
	RedirectURL string
}

// Payment is the gateway's record of a transaction, fetched by identifier.
type Payment struct {
	// ID is the gateway's transaction identifier, the ledger idempotency key.
	ID         string
	OrderID    string
	Status     string
	GrossCents int64
}

// Client is the outbound surface of the payment gateway.
type Client interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// FetchPayment looks a payment up by order identifier. A gateway error
	// aborts the caller's confirmation attempt; nothing is written, so the
	// other trigger can retry naturally.
	FetchPayment(ctx context.Context, orderID string) (*Payment, error)
}
