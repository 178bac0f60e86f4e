// Package withdraw moves campaign funds toward the owner's bank account.
// A withdrawal is born pending after an OTP-confirmed, balance-checked
// request; the back office completes or rejects it out of band.
package withdraw

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"fundgate/internal/models"
	"fundgate/internal/notify"
	"fundgate/internal/otp"
	"fundgate/internal/status"
	"fundgate/internal/ticket"
)

var (
	ErrNotOwner            = errors.New("campaign does not belong to requester")
	ErrProfileIncomplete   = errors.New("tax id and phone are required before withdrawing")
	ErrNoBankAccount       = errors.New("no bank account on file")
	ErrCampaignNotEnded    = errors.New("campaign must have ended before funds can be withdrawn")
	ErrInsufficientBalance = errors.New("requested amount exceeds available balance")
	ErrInvalidAmount       = errors.New("withdrawal amount must be positive")
)

type Store interface {
	GetCampaign(ctx context.Context, id int64) (*models.Campaign, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	GetBankAccount(ctx context.Context, userID int64) (*models.BankAccount, error)
	WithdrawnTotal(ctx context.Context, campaignID int64) (int64, error)
	// CreateWithdrawal must re-check the balance and insert atomically,
	// returning false when the funds are no longer available.
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) (bool, error)
	ListWithdrawalsByOwner(ctx context.Context, ownerID int64) ([]models.Withdrawal, error)
}

// CodeGate is the slice of the OTP gate this package needs: a non-consuming
// check so a failed precondition doesn't burn the code, and the consume on
// success.
type CodeGate interface {
	Check(ctx context.Context, userID int64, action, code string) error
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

// Available returns captured funds minus pending and completed withdrawals.
// Only the campaign owner may ask.
func (s *Service) Available(ctx context.Context, ownerID, campaignID int64) (int64, error) {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if c.OwnerID != ownerID {
		return 0, ErrNotOwner
	}
	withdrawn, err := s.store.WithdrawnTotal(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	return c.CapturedCents - withdrawn, nil
}

type RequestInput struct {
	OwnerID     int64
	CampaignID  int64
	AmountCents int64
	Code        string
}

// Request validates eligibility in a fixed order, consumes the OTP, and
// inserts the pending withdrawal. Notification and the back-office ticket
// are fire-and-forget.
func (s *Service) Request(ctx context.Context, in RequestInput) (*models.Withdrawal, error) {
	if err := s.gate.Check(ctx, in.OwnerID, otp.ActionWithdrawal, in.Code); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if profile.TaxID == nil || *profile.TaxID == "" || profile.Phone == nil || *profile.Phone == "" {
		return nil, ErrProfileIncomplete
	}

	account, err := s.store.GetBankAccount(ctx, in.OwnerID)
	if err != nil {
		return nil, ErrNoBankAccount
	}

	c, err := s.store.GetCampaign(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != in.OwnerID {
		return nil, ErrNotOwner
	}
	if status.Resolve(c.Status, c.EndsAt, s.now()) != status.Ended {
		return nil, ErrCampaignNotEnded
	}

	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	withdrawn, err := s.store.WithdrawnTotal(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if in.AmountCents > c.CapturedCents-withdrawn {
		return nil, ErrInsufficientBalance
	}

	if err := s.gate.Consume(ctx, in.OwnerID, otp.ActionWithdrawal, in.Code); err != nil {
		return nil, err
	}

	w := &models.Withdrawal{
		CampaignID:  in.CampaignID,
		OwnerID:     in.OwnerID,
		AmountCents: in.AmountCents,
	}
	ok, err := s.store.CreateWithdrawal(ctx, w)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent request drained the balance between the check above
		// and the insert.
		return nil, ErrInsufficientBalance
	}

	s.afterRequest(ctx, c, account, w)
	return w, nil
}

func (s *Service) afterRequest(ctx context.Context, c *models.Campaign, account *models.BankAccount, w *models.Withdrawal) {
	owner, err := s.store.GetUser(ctx, w.OwnerID)
	if err != nil {
		log.Printf("owner %d lookup after withdrawal failed: %v", w.OwnerID, err)
		return
	}

	params := map[string]string{
		"campaign": c.Title,
		"amount":   strconv.FormatInt(w.AmountCents, 10),
	}
	if err := s.notifier.Send(ctx, owner.Email, notify.TemplateWithdrawal, params); err != nil {
		log.Printf("withdrawal notification for %d failed: %v", w.ID, err)
	}

	body := fmt.Sprintf(
		"Withdrawal %d: transfer %d cents from campaign %q (id %d) to %s account %s (%s).",
		w.ID, w.AmountCents, c.Title, c.ID, account.BankName, account.AccountNumber, account.HolderName)
	cs := ticket.Case{
		Subject:        fmt.Sprintf("Withdrawal request %d", w.ID),
		Contact:        owner.Email,
		Body:           body,
		Priority:       ticket.PriorityNormal,
		Classification: ticket.ClassWithdrawal,
	}
	if err := s.tickets.CreateCase(ctx, cs); err != nil {
		log.Printf("withdrawal ticket for %d failed: %v", w.ID, err)
	}
}

// List returns the owner's withdrawal history.
func (s *Service) List(ctx context.Context, ownerID int64) ([]models.Withdrawal, error) {
	return s.store.ListWithdrawalsByOwner(ctx, ownerID)
}
