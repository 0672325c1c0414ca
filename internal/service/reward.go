package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/metrics"
	"zenithmedia_bot/internal/repository"
)

// RewardKeyStore is the key inventory surface; satisfied by
// *repository.RewardKeyRepository.
type RewardKeyStore interface {
	AddKeys(ctx context.Context, values []string) (added int, err error)
	CountAvailable(ctx context.Context) (int, error)
	AssignNext(ctx context.Context, creatorID int64, now time.Time) (*domain.RewardKey, error)
	Revoke(ctx context.Context, id int64) error
	ListEligible(ctx context.Context, minVideos int, windowStart, cooldownCutoff time.Time) ([]domain.Creator, error)
}

// RewardConfig carries the eligibility policy for the key distributor.
type RewardConfig struct {
	MinVideos int
	Window    time.Duration
	Cooldown  time.Duration
}

// Assignment is one key handed to one creator in a distribution cycle.
type Assignment struct {
	Creator domain.Creator
	Key     string
}

// DistributionReport summarizes one distribution cycle.
type DistributionReport struct {
	Assigned        []Assignment
	SkippedEligible int  // eligible creators left without a key
	Exhausted       bool // the inventory ran dry this cycle
}

// RewardService hands out reward keys to creators who kept up their posting
// quota. A creator receives at most one key per cool-down period regardless
// of how many cycles run; the claim and the cool-down stamp are one
// transaction in the store.
type RewardService struct {
	keys  RewardKeyStore
	cfg   RewardConfig
	nowFn func() time.Time
	log   *slog.Logger
}

func NewRewardService(keys RewardKeyStore, cfg RewardConfig) *RewardService {
	return &RewardService{
		keys:  keys,
		cfg:   cfg,
		nowFn: time.Now,
		log:   logger.With("component", "rewards"),
	}
}

// DistributeOnce runs a single distribution cycle: collect the eligible
// creators, then assign keys in creator order until either the creators or
// the keys run out. Exhaustion is reported, never an error.
func (s *RewardService) DistributeOnce(ctx context.Context) (*DistributionReport, error) {
	now := s.nowFn()
	eligible, err := s.keys.ListEligible(ctx, s.cfg.MinVideos, now.Add(-s.cfg.Window), now.Add(-s.cfg.Cooldown))
	if err != nil {
		return nil, err
	}

	report := &DistributionReport{}
	for i, creator := range eligible {
		key, err := s.keys.AssignNext(ctx, creator.ID, now)
		if err != nil {
			if errors.Is(err, repository.ErrNoKeysAvailable) {
				report.Exhausted = true
				report.SkippedEligible = len(eligible) - i
				break
			}
			return report, err
		}

		report.Assigned = append(report.Assigned, Assignment{Creator: creator, Key: key.Value})
		metrics.RewardKeysAssigned.Inc()
	}

	s.log.Info("distribution cycle finished",
		"eligible", len(eligible),
		"assigned", len(report.Assigned),
		"exhausted", report.Exhausted,
	)
	return report, nil
}

// UploadKeys adds a batch to the inventory, skipping values seen before.
func (s *RewardService) UploadKeys(ctx context.Context, values []string) (added int, err error) {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return 0, nil
	}

	added, err = s.keys.AddKeys(ctx, cleaned)
	if err != nil {
		return added, err
	}
	s.log.Info("keys uploaded", "received", len(values), "added", added)
	return added, nil
}

// RevokeKey pulls an assigned key out of circulation, e.g. when the value
// leaked or was handed out by mistake. Only assigned keys can be revoked.
func (s *RewardService) RevokeKey(ctx context.Context, id int64) error {
	if err := s.keys.Revoke(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrKeyNotRevocable
		}
		return err
	}
	s.log.Info("key revoked", "key_id", id)
	return nil
}

// AvailableKeys reports the remaining inventory.
func (s *RewardService) AvailableKeys(ctx context.Context) (int, error) {
	return s.keys.CountAvailable(ctx)
}
