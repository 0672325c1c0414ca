package service

import (
	"context"
	"testing"
	"time"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/repository"
)

// fakeKeyStore hands keys to eligible creators; AssignNext consumes the
// inventory in order and stamps the claim like the real store does.
type fakeKeyStore struct {
	eligible []domain.Creator
	keys     []string
	assigned map[int64]string
	statuses map[int64]domain.RewardKeyStatus
	nextID   int64
}

func newFakeKeyStore(eligible []domain.Creator, keys []string) *fakeKeyStore {
	return &fakeKeyStore{
		eligible: eligible,
		keys:     keys,
		assigned: make(map[int64]string),
		statuses: make(map[int64]domain.RewardKeyStatus),
	}
}

func (s *fakeKeyStore) AddKeys(ctx context.Context, values []string) (int, error) {
	added := 0
	for _, v := range values {
		dup := false
		for _, k := range s.keys {
			if k == v {
				dup = true
				break
			}
		}
		if !dup {
			s.keys = append(s.keys, v)
			added++
		}
	}
	return added, nil
}

func (s *fakeKeyStore) CountAvailable(ctx context.Context) (int, error) {
	return len(s.keys), nil
}

func (s *fakeKeyStore) AssignNext(ctx context.Context, creatorID int64, now time.Time) (*domain.RewardKey, error) {
	if len(s.keys) == 0 {
		return nil, repository.ErrNoKeysAvailable
	}
	value := s.keys[0]
	s.keys = s.keys[1:]
	s.assigned[creatorID] = value
	s.nextID++
	s.statuses[s.nextID] = domain.RewardKeyAssigned
	return &domain.RewardKey{ID: s.nextID, Value: value, Status: domain.RewardKeyAssigned, AssignedTo: creatorID}, nil
}

func (s *fakeKeyStore) Revoke(ctx context.Context, id int64) error {
	if s.statuses[id] != domain.RewardKeyAssigned {
		return repository.ErrAlreadyProcessed
	}
	s.statuses[id] = domain.RewardKeyRevoked
	return nil
}

func (s *fakeKeyStore) ListEligible(ctx context.Context, minVideos int, windowStart, cooldownCutoff time.Time) ([]domain.Creator, error) {
	return s.eligible, nil
}

func rewardConfig() RewardConfig {
	return RewardConfig{MinVideos: 2, Window: 7 * 24 * time.Hour, Cooldown: 7 * 24 * time.Hour}
}

func TestDistributeOnceRunsOutOfKeys(t *testing.T) {
	eligible := []domain.Creator{
		{ID: 1, TgID: 101}, {ID: 2, TgID: 102}, {ID: 3, TgID: 103}, {ID: 4, TgID: 104}, {ID: 5, TgID: 105},
	}
	store := newFakeKeyStore(eligible, []string{"K1", "K2", "K3"})
	svc := NewRewardService(store, rewardConfig())

	report, err := svc.DistributeOnce(context.Background())
	if err != nil {
		t.Fatalf("DistributeOnce: %v", err)
	}

	if len(report.Assigned) != 3 {
		t.Fatalf("assigned = %d; want 3", len(report.Assigned))
	}
	if !report.Exhausted {
		t.Fatal("exhaustion not reported")
	}
	if report.SkippedEligible != 2 {
		t.Fatalf("skipped = %d; want 2", report.SkippedEligible)
	}
	// keys handed out in creator order, no creator twice
	for i, a := range report.Assigned {
		if a.Creator.ID != eligible[i].ID {
			t.Fatalf("assignment %d went to creator %d; want %d", i, a.Creator.ID, eligible[i].ID)
		}
	}
}

func TestDistributeOnceEnoughKeys(t *testing.T) {
	eligible := []domain.Creator{{ID: 1, TgID: 101}, {ID: 2, TgID: 102}}
	store := newFakeKeyStore(eligible, []string{"K1", "K2", "K3"})
	svc := NewRewardService(store, rewardConfig())

	report, err := svc.DistributeOnce(context.Background())
	if err != nil {
		t.Fatalf("DistributeOnce: %v", err)
	}
	if len(report.Assigned) != 2 || report.Exhausted || report.SkippedEligible != 0 {
		t.Fatalf("report = %+v; want 2 assigned, not exhausted", report)
	}
	if n, _ := store.CountAvailable(context.Background()); n != 1 {
		t.Fatalf("keys left = %d; want 1", n)
	}
}

func TestDistributeOnceNoEligible(t *testing.T) {
	store := newFakeKeyStore(nil, []string{"K1"})
	svc := NewRewardService(store, rewardConfig())

	report, err := svc.DistributeOnce(context.Background())
	if err != nil {
		t.Fatalf("DistributeOnce: %v", err)
	}
	if len(report.Assigned) != 0 || report.Exhausted {
		t.Fatalf("report = %+v; want empty, not exhausted", report)
	}
}

func TestUploadKeysSkipsEmptyAndDuplicates(t *testing.T) {
	store := newFakeKeyStore(nil, []string{"K1"})
	svc := NewRewardService(store, rewardConfig())

	added, err := svc.UploadKeys(context.Background(), []string{"K1", "", "K2", "K2"})
	if err != nil {
		t.Fatalf("UploadKeys: %v", err)
	}
	// K1 is a duplicate, the empty value is dropped, K2 lands once
	if added != 1 {
		t.Fatalf("added = %d; want 1", added)
	}
}
