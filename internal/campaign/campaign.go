// Package campaign owns the campaign lifecycle: publishing, reads with
// time-resolved status, the per-owner financial summary, and cancellation.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fundgate/internal/models"
	"fundgate/internal/notify"
	"fundgate/internal/otp"
	"fundgate/internal/status"
	"fundgate/internal/ticket"
)

var (
	ErrNotFound     = errors.New("campaign not found")
	ErrNotOwner     = errors.New("campaign does not belong to requester")
	ErrAlreadyFinal = errors.New("campaign is already cancelled")
	// ErrCodeRequired means the campaign holds funds and cancellation needs
	// an OTP confirmation first.
	ErrCodeRequired = errors.New("a security code is required to cancel a campaign with funds")
)

type Store interface {
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]models.Campaign, error)
	ListCampaignsByOwner(ctx context.Context, ownerID int64) ([]models.Campaign, error)
	SetCampaignStatus(ctx context.Context, id int64, stored string) error
	WithdrawnTotal(ctx context.Context, campaignID int64) (int64, error)
	ListCompletedDonations(ctx context.Context, campaignID int64) ([]models.Donation, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type CodeGate interface {
	Consume(ctx context.Context, userID int64, action, code string) error
}

type Notifier interface {
	Send(ctx context.Context, to, template string, params map[string]string) error
}

type Tickets interface {
	CreateCase(ctx context.Context, cs ticket.Case) error
}

type Service struct {
	store    Store
	gate     CodeGate
	notifier Notifier
	tickets  Tickets
	now      func() time.Time
}

func NewService(store Store, gate CodeGate, notifier Notifier, tickets Tickets) *Service {
	return &Service{store: store, gate: gate, notifier: notifier, tickets: tickets, now: time.Now}
}

type PublishInput struct {
	OwnerID     int64
	Title       string
	Description string
	TargetCents int64
	EndsAt      *time.Time
}

// Publish creates a campaign in the active state.
func (s *Service) Publish(ctx context.Context, in PublishInput) (*models.Campaign, error) {
	if in.Title == "" || in.TargetCents <= 0 {
		return nil, fmt.Errorf("title and a positive target are required")
	}
	c := &models.Campaign{
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		TargetCents: in.TargetCents,
		Status:      status.Active,
		EndsAt:      in.EndsAt,
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the campaign with its status resolved against the clock.
func (s *Service) Get(ctx context.Context, id int64) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	c.Status = status.Resolve(c.Status, c.EndsAt, s.now())
	return c, nil
}

// List returns campaigns with resolved statuses.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Campaign, error) {
	list, err := s.store.ListCampaigns(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		list[i].Status = status.Resolve(list[i].Status, list[i].EndsAt, now)
	}
	return list, nil
}

// Summary buckets an owner's captured funds by what can currently be done
// with them. Bucketing runs on the resolved status, never the stored one.
type Summary struct {
	LifetimeCents   int64 `json:"lifetime_cents"`
	AvailableCents  int64 `json:"available_cents"`
	InFlightCents   int64 `json:"in_flight_cents"`
	CampaignCount   int   `json:"campaign_count"`
	TotalDonorCount int64 `json:"total_donor_count"`
}

// OwnerSummary aggregates across all campaigns the owner holds: funds in
// campaigns whose effective status is ended are available for withdrawal,
// active and paused funds are in flight, and cancelled/in-review/draft
// funds count only toward the lifetime total.
func (s *Service) OwnerSummary(ctx context.Context, ownerID int64) (*Summary, error) {
	list, err := s.store.ListCampaignsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sum := &Summary{CampaignCount: len(list)}
	for _, c := range list {
		sum.LifetimeCents += c.CapturedCents
		sum.TotalDonorCount += c.DonorCount

		effective := status.Resolve(c.Status, c.EndsAt, now)
		switch effective {
		case status.Ended, status.Active, status.Paused:
			withdrawn, err := s.store.WithdrawnTotal(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			if effective == status.Ended {
				sum.AvailableCents += c.CapturedCents - withdrawn
			} else {
				sum.InFlightCents += c.CapturedCents - withdrawn
			}
		}
	}
	return sum, nil
}

// Cancel transitions a campaign to cancelled. With outstanding balance an
// OTP of action type cancel_campaign is required and consumed; with any
// captured funds at all a refund-review case goes to the back office.
// Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, ownerID, campaignID int64, code string) error {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return ErrNotFound
	}
	if c.OwnerID != ownerID {
		return ErrNotOwner
	}
	if c.Status == status.Cancelled {
		return ErrAlreadyFinal
	}

	withdrawn, err := s.store.WithdrawnTotal(ctx, campaignID)
	if err != nil {
		return err
	}
	balance := c.CapturedCents - withdrawn

	if balance > 0 {
		if code == "" {
			return ErrCodeRequired
		}
		if err := s.gate.Consume(ctx, ownerID, otp.ActionCancelCampaign, code); err != nil {
			return err
		}
	}

	if err := s.store.SetCampaignStatus(ctx, campaignID, status.Cancelled); err != nil {
		return err
	}

	if c.CapturedCents > 0 {
		s.afterCancel(ctx, c, balance)
	}
	return nil
}

func (s *Service) afterCancel(ctx context.Context, c *models.Campaign, balance int64) {
	owner, err := s.store.GetUser(ctx, c.OwnerID)
	if err != nil {
		log.Printf("owner %d lookup after cancel failed: %v", c.OwnerID, err)
		return
	}

	donations, err := s.store.ListCompletedDonations(ctx, c.ID)
	if err != nil {
		log.Printf("donation list for refund review of %d failed: %v", c.ID, err)
		donations = nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Campaign %q (id %d) cancelled with %d cents captured and %d cents outstanding.\n",
		c.Title, c.ID, c.CapturedCents, balance)
	fmt.Fprintf(&b, "Completed donations for refund review:\n")
	for _, d := range donations {
		fmt.Fprintf(&b, "- %s: %d cents from %s <%s>\n", d.GatewayTxID, d.BaseCents, d.DonorName, d.DonorEmail)
	}

	cs := ticket.Case{
		Subject:        fmt.Sprintf("Refund review for campaign %d", c.ID),
		Contact:        owner.Email,
		Body:           b.String(),
		Priority:       ticket.PriorityHigh,
		Classification: ticket.ClassRefundReview,
	}
	if err := s.tickets.CreateCase(ctx, cs); err != nil {
		log.Printf("refund review ticket for campaign %d failed: %v", c.ID, err)
	}

	params := map[string]string{"campaign": c.Title}
	if err := s.notifier.Send(ctx, owner.Email, notify.TemplateCancellation, params); err != nil {
		log.Printf("cancellation notification for campaign %d failed: %v", c.ID, err)
	}
}
