package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundgate/internal/models"
	"fundgate/internal/otp"
	"fundgate/internal/status"
	"fundgate/internal/ticket"
)

type fakeStore struct {
	campaigns   map[int64]*models.Campaign
	withdrawn   map[int64]int64
	donations   map[int64][]models.Donation
	statusWrite map[int64]string
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns:   make(map[int64]*models.Campaign),
		withdrawn:   make(map[int64]int64),
		donations:   make(map[int64][]models.Donation),
		statusWrite: make(map[int64]string),
	}
}

func (f *fakeStore) CreateCampaign(_ context.Context, c *models.Campaign) error {
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	f.campaigns[c.ID] = c
	return nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id int64) (*models.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCampaigns(_ context.Context, _, _ int) ([]models.Campaign, error) {
	var out []models.Campaign
	for _, c := range f.campaigns {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) ListCampaignsByOwner(_ context.Context, ownerID int64) ([]models.Campaign, error) {
	var out []models.Campaign
	for _, c := range f.campaigns {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) SetCampaignStatus(_ context.Context, id int64, stored string) error {
	c, ok := f.campaigns[id]
	if !ok {
		return errors.New("not found")
	}
	c.Status = stored
	f.statusWrite[id] = stored
	return nil
}

func (f *fakeStore) WithdrawnTotal(_ context.Context, campaignID int64) (int64, error) {
	return f.withdrawn[campaignID], nil
}

func (f *fakeStore) ListCompletedDonations(_ context.Context, campaignID int64) ([]models.Donation, error) {
	return f.donations[campaignID], nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id, Email: "owner@example.com"}, nil
}

type fakeGate struct {
	code     string
	consumed bool
}

func (g *fakeGate) Consume(_ context.Context, _ int64, action, code string) error {
	if action != otp.ActionCancelCampaign || g.consumed || code != g.code {
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

type fakeTickets struct{ cases []ticket.Case }

func (f *fakeTickets) CreateCase(_ context.Context, cs ticket.Case) error {
	f.cases = append(f.cases, cs)
	return nil
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	seed := func(captured, withdrawn int64) (*Service, *fakeStore, *fakeGate, *fakeTickets) {
		store := newFakeStore()
		store.campaigns[1] = &models.Campaign{
			ID: 1, OwnerID: 10, Title: "Relief", Status: status.Active, CapturedCents: captured,
		}
		store.withdrawn[1] = withdrawn
		store.donations[1] = []models.Donation{
			{GatewayTxID: "tx-1", BaseCents: captured, DonorName: "D", Status: models.DonationCompleted},
		}
		gate := &fakeGate{code: "123456"}
		tickets := &fakeTickets{}
		return NewService(store, gate, &fakeNotifier{}, tickets), store, gate, tickets
	}

	t.Run("funds at stake without code is rejected", func(t *testing.T) {
		svc, store, _, _ := seed(50000, 0)
		err := svc.Cancel(ctx, 10, 1, "")
		if !errors.Is(err, ErrCodeRequired) {
			t.Fatalf("got %v, want ErrCodeRequired", err)
		}
		if store.campaigns[1].Status == status.Cancelled {
			t.Error("campaign cancelled without code")
		}
	})

	t.Run("funds at stake with valid code cancels and emits refund review", func(t *testing.T) {
		svc, store, gate, tickets := seed(50000, 0)
		if err := svc.Cancel(ctx, 10, 1, "123456"); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if store.campaigns[1].Status != status.Cancelled {
			t.Error("campaign not cancelled")
		}
		if !gate.consumed {
			t.Error("code not consumed")
		}
		if len(tickets.cases) != 1 || tickets.cases[0].Classification != ticket.ClassRefundReview {
			t.Errorf("cases %+v, want one refund review", tickets.cases)
		}
	})

	t.Run("zero balance needs no code", func(t *testing.T) {
		svc, store, gate, _ := seed(0, 0)
		if err := svc.Cancel(ctx, 10, 1, ""); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if store.campaigns[1].Status != status.Cancelled {
			t.Error("campaign not cancelled")
		}
		if gate.consumed {
			t.Error("code consumed for zero-balance cancel")
		}
	})

	t.Run("fully withdrawn campaign needs no code but still gets refund review", func(t *testing.T) {
		svc, _, gate, tickets := seed(50000, 50000)
		if err := svc.Cancel(ctx, 10, 1, ""); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if gate.consumed {
			t.Error("code consumed with zero outstanding balance")
		}
		if len(tickets.cases) != 1 {
			t.Error("refund review not emitted for campaign with captured funds")
		}
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		svc, store, _, _ := seed(50000, 0)
		err := svc.Cancel(ctx, 10, 1, "000000")
		if !errors.Is(err, otp.ErrInvalidCode) {
			t.Fatalf("got %v, want ErrInvalidCode", err)
		}
		if store.campaigns[1].Status == status.Cancelled {
			t.Error("campaign cancelled with wrong code")
		}
	})

	t.Run("ownership enforced", func(t *testing.T) {
		svc, _, _, _ := seed(0, 0)
		if err := svc.Cancel(ctx, 11, 1, ""); !errors.Is(err, ErrNotOwner) {
			t.Errorf("got %v, want ErrNotOwner", err)
		}
	})

	t.Run("cancel is terminal", func(t *testing.T) {
		svc, _, _, _ := seed(0, 0)
		if err := svc.Cancel(ctx, 10, 1, ""); err != nil {
			t.Fatal(err)
		}
		if err := svc.Cancel(ctx, 10, 1, ""); !errors.Is(err, ErrAlreadyFinal) {
			t.Errorf("got %v, want ErrAlreadyFinal", err)
		}
	})
}

func TestOwnerSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Hour)

	store := newFakeStore()
	// Effective ended via expiry: available.
	store.campaigns[1] = &models.Campaign{ID: 1, OwnerID: 10, Status: status.Active, EndsAt: &past, CapturedCents: 80000, DonorCount: 8}
	store.withdrawn[1] = 30000
	// Still active: in flight.
	store.campaigns[2] = &models.Campaign{ID: 2, OwnerID: 10, Status: status.Active, CapturedCents: 20000, DonorCount: 2}
	// Cancelled: lifetime only.
	store.campaigns[3] = &models.Campaign{ID: 3, OwnerID: 10, Status: status.Cancelled, CapturedCents: 5000, DonorCount: 1}
	// Someone else's campaign is invisible.
	store.campaigns[4] = &models.Campaign{ID: 4, OwnerID: 99, Status: status.Active, CapturedCents: 999999}

	svc := NewService(store, &fakeGate{}, &fakeNotifier{}, &fakeTickets{})
	sum, err := svc.OwnerSummary(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}

	if sum.LifetimeCents != 105000 {
		t.Errorf("lifetime %d, want 105000", sum.LifetimeCents)
	}
	if sum.AvailableCents != 50000 {
		t.Errorf("available %d, want 50000", sum.AvailableCents)
	}
	if sum.InFlightCents != 20000 {
		t.Errorf("in flight %d, want 20000", sum.InFlightCents)
	}
	if sum.CampaignCount != 3 {
		t.Errorf("campaign count %d, want 3", sum.CampaignCount)
	}
	if sum.TotalDonorCount != 11 {
		t.Errorf("donor count %d, want 11", sum.TotalDonorCount)
	}
}

func TestGetResolvesStatus(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)

	store := newFakeStore()
	store.campaigns[1] = &models.Campaign{ID: 1, OwnerID: 10, Status: status.Active, EndsAt: &past}

	svc := NewService(store, &fakeGate{}, &fakeNotifier{}, &fakeTickets{})
	c, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != status.Ended {
		t.Errorf("status %q, want ended", c.Status)
	}
	// The stored row is untouched; expiry is derived, not written.
	if store.campaigns[1].Status != status.Active {
		t.Errorf("stored status mutated to %q", store.campaigns[1].Status)
	}
}
