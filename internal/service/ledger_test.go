package service

import (
	"context"
	"errors"
	"testing"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/repository"
)

func TestCommissionFor(t *testing.T) {
	svc := NewLedgerService(newMemStore(), &recordingAuditor{}, 10)

	cases := []struct {
		amount, want int64
	}{
		{13000, 1300},
		{6500, 650},
		{99, 9}, // integer division, no rounding up
		{0, 0},
	}
	for _, tc := range cases {
		if got := svc.CommissionFor(tc.amount); got != tc.want {
			t.Fatalf("CommissionFor(%d) = %d; want %d", tc.amount, got, tc.want)
		}
	}
}

func TestCreditVideoRejectsBadAmounts(t *testing.T) {
	svc := NewLedgerService(newMemStore(), &recordingAuditor{}, 10)

	for _, amount := range []int64{0, -500} {
		if _, err := svc.CreditVideo(context.Background(), 1, 1, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: err = %v; want ErrInvalidAmount", amount, err)
		}
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, Balance: 100})
	svc := NewLedgerService(store, &recordingAuditor{}, 10)

	_, err := svc.Debit(context.Background(), 1, 500, domain.LedgerKindWithdrawal, 0)
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("err = %v; want ErrInsufficientBalance", err)
	}
	if got := store.creators[1].Balance; got != 100 {
		t.Fatalf("balance = %d; want untouched 100", got)
	}
}

func TestSetBalanceAuditsOldAndNew(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, Balance: 4200})
	audit := &recordingAuditor{}
	svc := NewLedgerService(store, audit, 10)

	if err := svc.SetBalance(context.Background(), 999, 1, 100); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if got := store.creators[1].Balance; got != 100 {
		t.Fatalf("balance = %d; want 100", got)
	}
	if len(audit.events) != 1 || audit.events[0] != domain.AuditActionSetBalance {
		t.Fatalf("audit events = %v; want one set_balance", audit.events)
	}

	if err := svc.SetBalance(context.Background(), 999, 1, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative override err = %v; want ErrInvalidAmount", err)
	}
}

func TestSetBalanceNeverCascades(t *testing.T) {
	store := newMemStore()
	store.addCreator(&domain.Creator{ID: 1, Tier: domain.TierBronze})
	store.addCreator(&domain.Creator{ID: 2, Tier: domain.TierBronze, ReferrerID: 1})
	svc := NewLedgerService(store, &recordingAuditor{}, 10)

	if err := svc.SetBalance(context.Background(), 999, 2, 100000); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if store.commissions != 0 {
		t.Fatalf("commission applied on admin override: %d", store.commissions)
	}
	if got := store.creators[1].Balance; got != 0 {
		t.Fatalf("referrer balance = %d; want 0", got)
	}
}
