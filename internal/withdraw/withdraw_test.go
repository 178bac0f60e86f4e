package withdraw

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fundgate/internal/models"
	"fundgate/internal/otp"
	"fundgate/internal/status"
	"fundgate/internal/ticket"
)

type fakeStore struct {
	mu          sync.Mutex
	campaign    *models.Campaign
	profile     *models.Profile
	account     *models.BankAccount
	withdrawals []models.Withdrawal
	nextID      int64
}

func (f *fakeStore) GetCampaign(_ context.Context, id int64) (*models.Campaign, error) {
	if f.campaign == nil || f.campaign.ID != id {
		return nil, errors.New("not found")
	}
	cp := *f.campaign
	return &cp, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id, Email: "owner@example.com"}, nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	if f.profile == nil {
		return nil, errors.New("not found")
	}
	return f.profile, nil
}

func (f *fakeStore) GetBankAccount(_ context.Context, userID int64) (*models.BankAccount, error) {
	if f.account == nil {
		return nil, errors.New("not found")
	}
	return f.account, nil
}

func (f *fakeStore) WithdrawnTotal(_ context.Context, campaignID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.withdrawnLocked(campaignID), nil
}

func (f *fakeStore) withdrawnLocked(campaignID int64) int64 {
	var total int64
	for _, w := range f.withdrawals {
		if w.CampaignID == campaignID &&
			(w.Status == models.WithdrawalPending || w.Status == models.WithdrawalCompleted) {
			total += w.AmountCents
		}
	}
	return total
}

func (f *fakeStore) CreateWithdrawal(_ context.Context, w *models.Withdrawal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.AmountCents > f.campaign.CapturedCents-f.withdrawnLocked(w.CampaignID) {
		return false, nil
	}
	f.nextID++
	w.ID = f.nextID
	w.Status = models.WithdrawalPending
	f.withdrawals = append(f.withdrawals, *w)
	return true, nil
}

func (f *fakeStore) ListWithdrawalsByOwner(_ context.Context, ownerID int64) ([]models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range f.withdrawals {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	return out, nil
}

// fakeGate accepts one specific code until consumed.
type fakeGate struct {
	mu       sync.Mutex
	code     string
	consumed bool
}

func (g *fakeGate) Check(_ context.Context, _ int64, _, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.consumed || code != g.code {
		return otp.ErrInvalidCode
	}
	return nil
}

func (g *fakeGate) Consume(_ context.Context, _ int64, _, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.consumed || code != g.code {
		return otp.ErrInvalidCode
	}
	g.consumed = true
	return nil
}

type fakeNotifier struct{ sent int }

func (f *fakeNotifier) Send(_ context.Context, _, _ string, _ map[string]string) error {
	f.sent++
	return nil
}

type fakeTickets struct {
	cases []ticket.Case
	fail  bool
}

func (f *fakeTickets) CreateCase(_ context.Context, cs ticket.Case) error {
	f.cases = append(f.cases, cs)
	if f.fail {
		return errors.New("ticketing down")
	}
	return nil
}

func ptr(s string) *string { return &s }

func setup() (*Service, *fakeStore, *fakeGate, *fakeTickets) {
	store := &fakeStore{
		campaign: &models.Campaign{
			ID: 1, OwnerID: 10, Title: "Relief fund",
			CapturedCents: 100000, Status: status.Ended,
		},
		profile: &models.Profile{UserID: 10, TaxID: ptr("12-345"), Phone: ptr("+620001")},
		account: &models.BankAccount{UserID: 10, BankName: "BCA", AccountNumber: "991", HolderName: "A"},
	}
	gate := &fakeGate{code: "123456"}
	tickets := &fakeTickets{}
	return NewService(store, gate, &fakeNotifier{}, tickets), store, gate, tickets
}

func TestRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("balance scenario", func(t *testing.T) {
		svc, store, gate, _ := setup()
		store.withdrawals = append(store.withdrawals, models.Withdrawal{
			CampaignID: 1, OwnerID: 10, AmountCents: 40000, Status: models.WithdrawalCompleted,
		})

		if avail, _ := svc.Available(ctx, 10, 1); avail != 60000 {
			t.Fatalf("available %d, want 60000", avail)
		}

		_, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 70000, Code: "123456"})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("70000: got %v, want ErrInsufficientBalance", err)
		}
		if gate.consumed {
			t.Fatal("code consumed by a rejected request")
		}

		w, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 60000, Code: "123456"})
		if err != nil {
			t.Fatalf("60000: %v", err)
		}
		if w.Status != models.WithdrawalPending {
			t.Errorf("status %q, want pending", w.Status)
		}
		if avail, _ := svc.Available(ctx, 10, 1); avail != 0 {
			t.Errorf("available %d after withdrawal, want 0", avail)
		}
	})

	t.Run("invalid code rejected first", func(t *testing.T) {
		svc, store, _, _ := setup()
		store.account = nil // would also fail, but the OTP error must win
		_, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 1000, Code: "999999"})
		if !errors.Is(err, otp.ErrInvalidCode) {
			t.Errorf("got %v, want ErrInvalidCode", err)
		}
	})

	t.Run("incomplete profile rejected", func(t *testing.T) {
		svc, store, gate, _ := setup()
		store.profile.TaxID = nil
		_, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 1000, Code: "123456"})
		if !errors.Is(err, ErrProfileIncomplete) {
			t.Errorf("got %v, want ErrProfileIncomplete", err)
		}
		if gate.consumed {
			t.Error("code consumed despite precondition failure")
		}
	})

	t.Run("missing bank account rejected", func(t *testing.T) {
		svc, store, _, _ := setup()
		store.account = nil
		_, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 1000, Code: "123456"})
		if !errors.Is(err, ErrNoBankAccount) {
			t.Errorf("got %v, want ErrNoBankAccount", err)
		}
	})

	t.Run("active campaign not withdrawable", func(t *testing.T) {
		svc, store, _, _ := setup()
		store.campaign.Status = status.Active
		_, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 1000, Code: "123456"})
		if !errors.Is(err, ErrCampaignNotEnded) {
			t.Errorf("active: got %v, want ErrCampaignNotEnded", err)
		}

		store.campaign.Status = status.Paused
		_, err = svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 1000, Code: "123456"})
		if !errors.Is(err, ErrCampaignNotEnded) {
			t.Errorf("paused: got %v, want ErrCampaignNotEnded", err)
		}
	})

	t.Run("expired active campaign is withdrawable", func(t *testing.T) {
		svc, store, _, _ := setup()
		store.campaign.Status = status.Active
		past := svc.now().Add(-time.Hour)
		store.campaign.EndsAt = &past

		if _, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 1000, Code: "123456"}); err != nil {
			t.Errorf("expired campaign rejected: %v", err)
		}
	})

	t.Run("foreign campaign rejected", func(t *testing.T) {
		svc, _, _, _ := setup()
		_, err := svc.Request(ctx, RequestInput{OwnerID: 11, CampaignID: 1, AmountCents: 1000, Code: "123456"})
		if err == nil {
			t.Error("foreign owner accepted")
		}
	})

	t.Run("success consumes the code and emits a ticket", func(t *testing.T) {
		svc, _, gate, tickets := setup()
		if _, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 5000, Code: "123456"}); err != nil {
			t.Fatal(err)
		}
		if !gate.consumed {
			t.Error("code not consumed on success")
		}
		if len(tickets.cases) != 1 || tickets.cases[0].Classification != ticket.ClassWithdrawal {
			t.Errorf("ticket cases %+v, want one withdrawal case", tickets.cases)
		}

		_, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 5000, Code: "123456"})
		if !errors.Is(err, otp.ErrInvalidCode) {
			t.Errorf("reused code: got %v, want ErrInvalidCode", err)
		}
	})

	t.Run("ticketing failure does not fail the request", func(t *testing.T) {
		svc, store, _, tickets := setup()
		tickets.fail = true
		if _, err := svc.Request(ctx, RequestInput{OwnerID: 10, CampaignID: 1, AmountCents: 5000, Code: "123456"}); err != nil {
			t.Fatalf("request failed on ticketing error: %v", err)
		}
		if len(store.withdrawals) != 1 {
			t.Error("withdrawal not recorded")
		}
	})
}
