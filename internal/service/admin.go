package service

import (
	"context"
	"errors"
	"log/slog"

	"zenithmedia_bot/internal/cryptopay"
	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/repository"
)

// AdminCreatorStore is the creator surface for admin actions.
type AdminCreatorStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Creator, error)
	GetByTgID(ctx context.Context, tgID int64) (*domain.Creator, error)
	SetTier(ctx context.Context, id int64, from, to domain.Tier) error
	Count(ctx context.Context) (int64, error)
}

// InvoiceCreator issues top-up invoices for the settlement float; satisfied
// by *cryptopay.Client.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, asset string, amount float64, description string) (*cryptopay.Invoice, error)
	GetBalance(ctx context.Context) (map[string]float64, error)
}

// tierTransitions is the closed set of allowed moves. Banned creators can
// only come back as bronze.
var tierTransitions = map[domain.Tier][]domain.Tier{
	domain.TierBronze: {domain.TierGold, domain.TierBanned},
	domain.TierGold:   {domain.TierBronze, domain.TierBanned},
	domain.TierBanned: {domain.TierBronze},
}

func tierTransitionAllowed(from, to domain.Tier) bool {
	for _, t := range tierTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Stats is the operator dashboard snapshot.
type Stats struct {
	Creators       int64
	PendingPayouts int
	AvailableKeys  int
	FloatUSDT      float64
}

// AdminService covers the operator-side actions that are not moderation:
// tier management, float top-ups and the stats snapshot.
type AdminService struct {
	creators AdminCreatorStore
	payouts  PayoutStore
	rewards  *RewardService
	invoices InvoiceCreator
	audit    Auditor
	log      *slog.Logger
}

func NewAdminService(
	creators AdminCreatorStore,
	payouts PayoutStore,
	rewards *RewardService,
	invoices InvoiceCreator,
	audit Auditor,
) *AdminService {
	return &AdminService{
		creators: creators,
		payouts:  payouts,
		rewards:  rewards,
		invoices: invoices,
		audit:    audit,
		log:      logger.With("component", "admin"),
	}
}

// SetTier moves a creator between tiers along the allowed transitions. The
// conditional update in the store rejects the change if another admin moved
// the creator first.
func (s *AdminService) SetTier(ctx context.Context, adminID, creatorID int64, to domain.Tier) error {
	if !to.Valid() {
		return ErrTierTransition
	}

	creator, err := s.creators.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCreatorNotFound
		}
		return err
	}
	if creator.Tier == to {
		return nil
	}
	if !tierTransitionAllowed(creator.Tier, to) {
		return ErrTierTransition
	}

	if err := s.creators.SetTier(ctx, creatorID, creator.Tier, to); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrTierTransition
		}
		return err
	}

	s.audit.Audit(ctx, adminID, domain.AuditActionSetTier, domain.AuditCategoryModeration, map[string]interface{}{
		"creator_id": creatorID,
		"from":       string(creator.Tier),
		"to":         string(to),
	})
	s.log.Info("tier changed", "admin_id", adminID, "creator_id", creatorID, "from", creator.Tier, "to", to)
	return nil
}

// Ban is the shorthand for moving a creator to the banned tier.
func (s *AdminService) Ban(ctx context.Context, adminID, creatorID int64) error {
	return s.SetTier(ctx, adminID, creatorID, domain.TierBanned)
}

// CreateFloatInvoice issues a rail invoice to top up the settlement reserve.
func (s *AdminService) CreateFloatInvoice(ctx context.Context, adminID int64, amountUSDT float64) (*cryptopay.Invoice, error) {
	if amountUSDT <= 0 {
		return nil, ErrInvalidAmount
	}

	inv, err := s.invoices.CreateInvoice(ctx, "USDT", amountUSDT, "float top-up")
	if err != nil {
		return nil, err
	}

	s.log.Info("float invoice created", "admin_id", adminID, "amount_usdt", amountUSDT, "invoice_id", inv.InvoiceID)
	return inv, nil
}

// UploadKeys adds reward keys to the pool and leaves an audit event.
func (s *AdminService) UploadKeys(ctx context.Context, adminID int64, values []string) (int, error) {
	added, err := s.rewards.UploadKeys(ctx, values)
	if err != nil {
		return 0, err
	}

	s.audit.Audit(ctx, adminID, domain.AuditActionUploadKeys, domain.AuditCategoryRewards, map[string]interface{}{
		"submitted": len(values),
		"added":     added,
	})
	return added, nil
}

// RevokeKey pulls an assigned reward key out of circulation.
func (s *AdminService) RevokeKey(ctx context.Context, adminID, keyID int64) error {
	if err := s.rewards.RevokeKey(ctx, keyID); err != nil {
		return err
	}

	s.audit.Audit(ctx, adminID, domain.AuditActionRevokeKey, domain.AuditCategoryRewards, map[string]interface{}{
		"key_id": keyID,
	})
	return nil
}

// Stats collects the operator dashboard numbers. Partial availability is
// fine: a failing rail lookup zeroes the float instead of failing the call.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	creators, err := s.creators.Count(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.payouts.ListPending(ctx, 50)
	if err != nil {
		return nil, err
	}

	keys, err := s.rewards.AvailableKeys(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Creators:       creators,
		PendingPayouts: len(pending),
		AvailableKeys:  keys,
	}
	if balances, err := s.invoices.GetBalance(ctx); err == nil {
		stats.FloatUSDT = balances["USDT"]
	}
	return stats, nil
}
