package service

import (
	"context"
	"testing"

	"zenithmedia_bot/internal/domain"
)

type fakeReferrals struct{}

func (fakeReferrals) Stats(ctx context.Context, referrerID int64) (*domain.ReferralStats, error) {
	return &domain.ReferralStats{}, nil
}

func (fakeReferrals) ListByReferrer(ctx context.Context, referrerID int64) ([]domain.ReferralLink, error) {
	return nil, nil
}

func newCreatorService(store *memStore) *CreatorService {
	return NewCreatorService(store, fakeReferrals{}, "ZenithMediaBot")
}

func TestRegisterBindsReferrerOnce(t *testing.T) {
	store := newMemStore()
	svc := newCreatorService(store)
	ctx := context.Background()

	referrer, err := svc.Register(ctx, 101, "ref", "Referrer", "")
	if err != nil {
		t.Fatalf("register referrer: %v", err)
	}

	creator, err := svc.Register(ctx, 102, "new", "Newcomer", "101")
	if err != nil {
		t.Fatalf("register referred: %v", err)
	}
	if creator.ReferrerID != referrer.ID {
		t.Fatalf("referrer_id = %d; want %d", creator.ReferrerID, referrer.ID)
	}

	// A different code on a repeated /start must not rebind.
	again, err := svc.Register(ctx, 102, "new", "Newcomer", "999")
	if err != nil {
		t.Fatalf("repeat register: %v", err)
	}
	if again.ID != creator.ID || again.ReferrerID != referrer.ID {
		t.Fatalf("repeat register changed identity: %+v", again)
	}
}

func TestRegisterIgnoresBadReferralCodes(t *testing.T) {
	store := newMemStore()
	svc := newCreatorService(store)
	ctx := context.Background()

	cases := []struct {
		name    string
		tgID    int64
		refCode string
	}{
		{"self referral", 201, "201"},
		{"unknown referrer", 202, "777"},
		{"garbage code", 203, "not-a-number"},
	}

	for _, tc := range cases {
		c, err := svc.Register(ctx, tc.tgID, "u", "U", tc.refCode)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if c.ReferrerID != 0 {
			t.Fatalf("%s: referrer_id = %d; want 0", tc.name, c.ReferrerID)
		}
	}
}

func TestRegisterIgnoresBannedReferrer(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, TgID: 101, Tier: domain.TierBanned})
	svc := newCreatorService(store)

	c, err := svc.Register(context.Background(), 102, "u", "U", "101")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.ReferrerID != 0 {
		t.Fatalf("referrer_id = %d; want 0 for a banned referrer", c.ReferrerID)
	}
}

func TestReferralLink(t *testing.T) {
	svc := newCreatorService(newMemStore())
	c := &domain.Creator{TgID: 12345}
	want := "https://t.me/ZenithMediaBot?start=12345"
	if got := svc.ReferralLink(c); got != want {
		t.Fatalf("link = %s; want %s", got, want)
	}
}
