package gateway

import (
	"context"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

// Midtrans implements Client on the Midtrans Snap and Core APIs.
type Midtrans struct {
	Snap snap.Client
	Core coreapi.Client
}

func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	return &Midtrans{Snap: s, Core: c}
}

func (m *Midtrans) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.TotalCents,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.DonorName,
			Email: req.DonorEmail,
		},
	}

	resp, err := m.Snap.CreateTransaction(snapReq)
	if resp == nil {
		return nil, fmt.Errorf("gateway create transaction: %v", err)
	}
	return &Intent{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (m *Midtrans) FetchPayment(_ context.Context, orderID string) (*Payment, error) {
	resp, merr := m.Core.CheckTransaction(orderID)
	if resp == nil {
		return nil, fmt.Errorf("gateway check transaction %s: %v", orderID, merr)
	}

	gross, err := parseGrossCents(resp.GrossAmount)
	if err != nil {
		return nil, fmt.Errorf("gateway gross amount %q: %w", resp.GrossAmount, err)
	}

	return &Payment{
		ID:         resp.TransactionID,
		OrderID:    resp.OrderID,
		Status:     mapStatus(resp.TransactionStatus),
		GrossCents: gross,
	}, nil
}

// mapStatus collapses Midtrans transaction statuses into the three the
// pipeline cares about. Only settlement and capture mean money moved.
func mapStatus(s string) string {
	switch s {
	case "settlement", "capture":
		return StatusApproved
	case "pending", "authorize":
		return StatusPending
	default:
		return StatusRejected
	}
}

// parseGrossCents parses the gateway's decimal-string amount into cents
// without float arithmetic.
func parseGrossCents(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Round(0).IntPart(), nil
}
