// Package otp issues and consumes the single-use security codes that gate
// financially sensitive actions. Issuance is atomic at the datastore, so a
// double-submitted request yields one code and one notification.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"fundgate/internal/notify"
)

// Action types a security code can be scoped to.
const (
	ActionBankUpdate       = "bank_account_update"
	ActionPhoneUpdate      = "phone_update"
	ActionTwoFactorToggle  = "two_factor_toggle"
	ActionWithdrawal       = "withdrawal_request"
	ActionCancelCampaign   = "cancel_campaign"
	ActionLogin2FA         = "login_2fa"
	ActionPasswordChange   = "password_change"
	ActionPasswordRecovery = "password_recovery"
)

var (
	// ErrInvalidCode covers both a wrong code and an expired one. The two
	// causes are deliberately not distinguished to the caller.
	ErrInvalidCode = errors.New("invalid or expired code")

	ErrUnknownAction = errors.New("unknown security code action")
)

// dedupWindow suppresses duplicate issuance for the same (user, action).
const dedupWindow = 30 * time.Second

// subjects maps each action to the wording of the code notification.
var subjects = map[string]string{
	ActionBankUpdate:       "bank account change",
	ActionPhoneUpdate:      "phone number change",
	ActionTwoFactorToggle:  "two-factor settings change",
	ActionWithdrawal:       "withdrawal request",
	ActionCancelCampaign:   "campaign cancellation",
	ActionLogin2FA:         "sign-in verification",
	ActionPasswordChange:   "password change",
	ActionPasswordRecovery: "password recovery",
}

// Store is the slice of the datastore the gate needs. IssueCode must be a
// single atomic check-and-insert; ConsumeCode must be a single conditional
// update.
type Store interface {
	IssueCode(ctx context.Context, userID int64, action, code string, expiresAt time.Time, window time.Duration) (bool, error)
	CheckCode(ctx context.Context, userID int64, action, code string) (bool, error)
	ConsumeCode(ctx context.Context, userID int64, action, code string) (bool, error)
}

type Notifier interface {
	Send(ctx context.Context, to, template string, params map[string]string) error
}

type Gate struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewGate(store Store, notifier Notifier) *Gate {
	return &Gate{store: store, notifier: notifier, now: time.Now}
}

// IssueResult reports whether a fresh code was created. AlreadyRequested
// means a live code from the last few seconds exists and no notification
// was re-sent.
type IssueResult struct {
	AlreadyRequested bool
	ExpiresAt        time.Time
}

// Issue creates a code for (user, action) and sends it to the contact
// address. Duplicate requests inside the dedup window are suppressed
// without resending.
func (g *Gate) Issue(ctx context.Context, userID int64, action, contact string) (*IssueResult, error) {
	ttl, ok := expiry(action)
	if !ok {
		return nil, ErrUnknownAction
	}

	code, err := randomCode()
	if err != nil {
		return nil, err
	}

	expiresAt := g.now().Add(ttl)
	issued, err := g.store.IssueCode(ctx, userID, action, code, expiresAt, dedupWindow)
	if err != nil {
		return nil, err
	}
	if !issued {
		return &IssueResult{AlreadyRequested: true}, nil
	}

	params := map[string]string{
		"code":    code,
		"action":  subjects[action],
		"expires": fmt.Sprintf("%d minutes", int(ttl.Minutes())),
	}
	if err := g.notifier.Send(ctx, contact, notify.TemplateSecurityCode, params); err != nil {
		log.Printf("security code notification for user %d failed: %v", userID, err)
	}

	return &IssueResult{ExpiresAt: expiresAt}, nil
}

// Check reports whether a live matching code exists without consuming it.
func (g *Gate) Check(ctx context.Context, userID int64, action, code string) error {
	ok, err := g.store.CheckCode(ctx, userID, action, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// Consume marks the code used. A code succeeds here exactly once.
func (g *Gate) Consume(ctx context.Context, userID int64, action, code string) error {
	ok, err := g.store.ConsumeCode(ctx, userID, action, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// expiry returns the code lifetime for an action. Password recovery gets a
// longer window; everything else is short.
func expiry(action string) (time.Duration, bool) {
	switch action {
	case ActionPasswordRecovery:
		return 15 * time.Minute, true
	case ActionBankUpdate, ActionPhoneUpdate, ActionTwoFactorToggle,
		ActionWithdrawal, ActionCancelCampaign, ActionLogin2FA, ActionPasswordChange:
		return 10 * time.Minute, true
	}
	return 0, false
}

// randomCode draws 6 decimal digits from crypto/rand.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
