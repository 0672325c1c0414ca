package service

import (
	"context"
	"log/slog"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/metrics"
	"zenithmedia_bot/internal/repository"
)

// LedgerStore is the atomic storage surface the ledger runs on. Every method
// is a single transaction on the real implementation.
type LedgerStore interface {
	CreditVideoEarnings(ctx context.Context, videoID, creatorID, amount, commission int64) (repository.CreditOutcome, error)
	Debit(ctx context.Context, creatorID, amount int64, kind string, refID int64) (int64, error)
	SetBalance(ctx context.Context, creatorID, amount int64) (int64, error)
}

// Auditor records admin-visible events; satisfied by *AuditService.
type Auditor interface {
	Audit(ctx context.Context, actorID int64, action, category string, details map[string]interface{})
}

// LedgerService is the only component allowed to mutate creator balances.
// Credits originating from approved videos trigger the referral cascade
// inside the same storage transaction; admin corrections never do.
type LedgerService struct {
	store           LedgerStore
	audit           Auditor
	referralPercent int64
	log             *slog.Logger
}

func NewLedgerService(store LedgerStore, audit Auditor, referralPercent int64) *LedgerService {
	return &LedgerService{
		store:           store,
		audit:           audit,
		referralPercent: referralPercent,
		log:             logger.With("component", "ledger"),
	}
}

// CommissionFor returns the referral commission for a credited amount.
func (s *LedgerService) CommissionFor(amount int64) int64 {
	return amount * s.referralPercent / 100
}

// CreditVideo approves the video and credits its earnings to the owner's
// balance, cascading the referral commission. Exactly-once: the underlying
// pending -> approved guard rejects a second credit for the same video.
func (s *LedgerService) CreditVideo(ctx context.Context, videoID, creatorID, amount int64) (repository.CreditOutcome, error) {
	if amount <= 0 {
		return repository.CreditOutcome{}, ErrInvalidAmount
	}

	out, err := s.store.CreditVideoEarnings(ctx, videoID, creatorID, amount, s.CommissionFor(amount))
	if err != nil {
		return out, err
	}

	metrics.CreditsTotal.WithLabelValues(domain.LedgerKindVideoEarnings).Inc()
	if out.CommissionApplied > 0 {
		metrics.CreditsTotal.WithLabelValues(domain.LedgerKindReferralCommission).Inc()
	}

	s.log.Info("video earnings credited",
		"video_id", videoID,
		"creator_id", creatorID,
		"amount_kop", amount,
		"commission_kop", out.CommissionApplied,
		"new_balance", out.NewBalance,
	)
	return out, nil
}

// Debit subtracts amount from the balance; fails without partial effect when
// the balance is short.
func (s *LedgerService) Debit(ctx context.Context, creatorID, amount int64, kind string, refID int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	newBalance, err := s.store.Debit(ctx, creatorID, amount, kind, refID)
	if err != nil {
		return 0, err
	}

	s.log.Info("balance debited", "creator_id", creatorID, "amount_kop", amount, "new_balance", newBalance)
	return newBalance, nil
}

// SetBalance is the admin override. Unconditional, never cascades, always
// leaves an audit event with the old and new values.
func (s *LedgerService) SetBalance(ctx context.Context, adminID, creatorID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}

	old, err := s.store.SetBalance(ctx, creatorID, amount)
	if err != nil {
		return err
	}

	s.audit.Audit(ctx, adminID, domain.AuditActionSetBalance, domain.AuditCategoryLedger, map[string]interface{}{
		"creator_id":  creatorID,
		"old_balance": old,
		"new_balance": amount,
	})

	s.log.Warn("balance overridden by admin",
		"admin_id", adminID,
		"creator_id", creatorID,
		"old_balance", old,
		"new_balance", amount,
	)
	return nil
}
