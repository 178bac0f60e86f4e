// Package payments is the payment confirmation pipeline. Two triggers, the
// gateway webhook and the donor's verify call after redirect, converge on
// Confirm; the donations table's unique key on the gateway transaction id
// guarantees the ledger is written at most once however the two race.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fundgate/internal/gateway"
	"fundgate/internal/models"
	"fundgate/internal/notify"
	"fundgate/internal/status"
	ws "fundgate/internal/websocket"
)

// Trigger identifies which confirmation path is running.
type Trigger string

const (
	TriggerWebhook Trigger = "webhook"
	TriggerVerify  Trigger = "verify"
)

var (
	// ErrUnknownPayment means the gateway order has no intent metadata on
	// file. Treated as malformed input, not silently defaulted.
	ErrUnknownPayment = errors.New("no payment intent recorded for order")

	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignClosed   = errors.New("campaign is not accepting donations")
	ErrInvalidSplit     = errors.New("invalid amount split")
)

// Store is the slice of the datastore the pipeline uses. InsertDonation
// must be atomic with the campaign aggregate bump and must return false,
// not an error, on a duplicate gateway transaction id.
type Store interface {
	GetCampaign(ctx context.Context, id int64) (*models.Campaign, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateIntent(ctx context.Context, in *models.PaymentIntent) error
	GetIntent(ctx context.Context, orderID string) (*models.PaymentIntent, error)
	InsertDonation(ctx context.Context, d *models.Donation) (bool, error)
}

type Notifier interface {
	Send(ctx context.Context, to, template string, params map[string]string) error
}

// Alerter pushes a live donation alert to the owner's widget. Best effort.
type Alerter interface {
	DonationConfirmed(alert ws.DonationAlert)
}

type Service struct {
	gw       gateway.Client
	store    Store
	notifier Notifier
	alerts   Alerter
	now      func() time.Time
}

func NewService(gw gateway.Client, store Store, notifier Notifier, alerts Alerter) *Service {
	return &Service{gw: gw, store: store, notifier: notifier, alerts: alerts, now: time.Now}
}

// CreateIntentInput is the donor's declared payment: the split is trusted
// as declared here and echoed back at confirmation time, never recomputed
// from the gateway total.
type CreateIntentInput struct {
	CampaignID  int64
	DonorName   string
	DonorEmail  string
	DonorUserID *int64
	BaseCents   int64
	TipCents    int64
	FeeCents    *int64
}

type CreateIntentResult struct {
	OrderID     string
	RedirectURL string
	Token       string
}

// CreateIntent registers the payment metadata and asks the gateway for a
// redirect URL. The donation ledger is untouched until a confirmation
// trigger fires.
func (s *Service) CreateIntent(ctx context.Context, in CreateIntentInput) (*CreateIntentResult, error) {
	if in.BaseCents <= 0 || in.TipCents < 0 {
		return nil, ErrInvalidSplit
	}

	c, err := s.store.GetCampaign(ctx, in.CampaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	if status.Resolve(c.Status, c.EndsAt, s.now()) != status.Active {
		return nil, ErrCampaignClosed
	}

	donorName := in.DonorName
	if donorName == "" {
		donorName = "Anonymous"
	}

	var fee int64
	if in.FeeCents != nil {
		fee = *in.FeeCents
	}
	total := in.BaseCents + in.TipCents + fee

	intent := &models.PaymentIntent{
		OrderID:     "DON-" + uuid.NewString(),
		CampaignID:  in.CampaignID,
		DonorName:   donorName,
		DonorEmail:  in.DonorEmail,
		DonorUserID: in.DonorUserID,
		BaseCents:   in.BaseCents,
		TipCents:    in.TipCents,
		FeeCents:    in.FeeCents,
		TotalCents:  total,
	}
	if err := s.store.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	resp, err := s.gw.CreateIntent(ctx, gateway.IntentRequest{
		OrderID:    intent.OrderID,
		TotalCents: total,
		DonorName:  donorName,
		DonorEmail: in.DonorEmail,
	})
	if err != nil {
		return nil, err
	}

	return &CreateIntentResult{
		OrderID:     intent.OrderID,
		RedirectURL: resp.RedirectURL,
		Token:       resp.Token,
	}, nil
}

// Result reports what a confirmation attempt did.
type Result struct {
	// Confirmed is true when the gateway reports the payment approved.
	Confirmed bool
	// AlreadyProcessed is true when the ledger entry existed before this
	// call; the racing trigger won and nothing was written.
	AlreadyProcessed bool
	// GatewayStatus is the mapped gateway status, for non-approved results.
	GatewayStatus string
	Donation      *models.Donation
}

// Confirm resolves a gateway order to a ledger entry exactly once. Both
// triggers run this identical sequence; a gateway failure aborts with
// nothing written so the other trigger can retry naturally.
func (s *Service) Confirm(ctx context.Context, orderID string, trigger Trigger) (*Result, error) {
	payment, err := s.gw.FetchPayment(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", orderID, err)
	}

	if payment.Status != gateway.StatusApproved {
		return &Result{GatewayStatus: payment.Status}, nil
	}

	intent, err := s.store.GetIntent(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPayment, orderID)
	}

	d := &models.Donation{
		CampaignID:  intent.CampaignID,
		GatewayTxID: payment.ID,
		OrderID:     orderID,
		DonorName:   intent.DonorName,
		DonorEmail:  intent.DonorEmail,
		DonorUserID: intent.DonorUserID,
		BaseCents:   intent.BaseCents,
		TipCents:    intent.TipCents,
		FeeCents:    feeFor(intent, payment.GrossCents),
		TotalCents:  payment.GrossCents,
		Status:      models.DonationCompleted,
	}

	inserted, err := s.store.InsertDonation(ctx, d)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return &Result{Confirmed: true, AlreadyProcessed: true}, nil
	}

	s.afterConfirm(ctx, d, trigger)
	return &Result{Confirmed: true, Donation: d}, nil
}

// afterConfirm fires the best-effort side effects of a newly recorded
// donation. None of them can roll back the ledger write.
func (s *Service) afterConfirm(ctx context.Context, d *models.Donation, trigger Trigger) {
	if d.DonorEmail != "" {
		params := map[string]string{
			"donor":  d.DonorName,
			"amount": strconv.FormatInt(d.BaseCents, 10),
		}
		if err := s.notifier.Send(ctx, d.DonorEmail, notify.TemplateDonationReceipt, params); err != nil {
			log.Printf("donor receipt for %s failed: %v", d.GatewayTxID, err)
		}
	}

	c, err := s.store.GetCampaign(ctx, d.CampaignID)
	if err != nil {
		log.Printf("campaign %d lookup after confirm failed: %v", d.CampaignID, err)
		return
	}

	if trigger == TriggerWebhook {
		owner, err := s.store.GetUser(ctx, c.OwnerID)
		if err != nil {
			log.Printf("owner %d lookup after confirm failed: %v", c.OwnerID, err)
		} else {
			params := map[string]string{
				"campaign": c.Title,
				"donor":    d.DonorName,
				"amount":   strconv.FormatInt(d.BaseCents, 10),
			}
			if err := s.notifier.Send(ctx, owner.Email, notify.TemplateOwnerDonation, params); err != nil {
				log.Printf("owner notification for %s failed: %v", d.GatewayTxID, err)
			}
		}
	}

	if s.alerts != nil {
		s.alerts.DonationConfirmed(ws.DonationAlert{
			TargetOwnerID: c.OwnerID,
			CampaignID:    c.ID,
			CampaignTitle: c.Title,
			DonorName:     d.DonorName,
			AmountCents:   d.BaseCents,
		})
	}
}

// feeFor trusts the fee declared at intent creation; only when none was
// declared does it fall back to gateway total minus the declared base and
// tip. A drifted gateway total can make that fallback negative, so it is
// clamped to zero and logged rather than stored.
func feeFor(intent *models.PaymentIntent, grossCents int64) int64 {
	if intent.FeeCents != nil {
		return *intent.FeeCents
	}
	fee := grossCents - intent.BaseCents - intent.TipCents
	if fee < 0 {
		log.Printf("order %s: gateway total %d below declared split, clamping fee to 0",
			intent.OrderID, grossCents)
		return 0
	}
	return fee
}
