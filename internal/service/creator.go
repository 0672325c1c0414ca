package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/repository"
)

// RegistrationStore is the creator surface for onboarding and profiles.
type RegistrationStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.Creator, error)
	GetByID(ctx context.Context, id int64) (*domain.Creator, error)
	Create(ctx context.Context, c *domain.Creator) error
}

// ReferralStore reads the referral side of a profile.
type ReferralStore interface {
	Stats(ctx context.Context, referrerID int64) (*domain.ReferralStats, error)
	ListByReferrer(ctx context.Context, referrerID int64) ([]domain.ReferralLink, error)
}

// CreatorService handles onboarding and profile reads. The referrer is bound
// once at registration and never changes afterwards; a referral code seen on
// a repeated /start is ignored.
type CreatorService struct {
	creators    RegistrationStore
	referrals   ReferralStore
	botUsername string
	log         *slog.Logger
}

func NewCreatorService(creators RegistrationStore, referrals ReferralStore, botUsername string) *CreatorService {
	return &CreatorService{
		creators:    creators,
		referrals:   referrals,
		botUsername: botUsername,
		log:         logger.With("component", "creator"),
	}
}

// Register finds or creates the creator for a Telegram account. refCode is
// the referrer's Telegram ID from the deep link; it is dropped silently when
// it does not resolve or points at the creator themselves.
func (s *CreatorService) Register(ctx context.Context, tgID int64, username, fullName, refCode string) (*domain.Creator, error) {
	if existing, err := s.creators.GetByTgID(ctx, tgID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	creator := &domain.Creator{
		TgID:     tgID,
		Username: username,
		FullName: fullName,
	}

	if refCode != "" {
		if refTgID, err := strconv.ParseInt(refCode, 10, 64); err == nil && refTgID != tgID {
			referrer, err := s.creators.GetByTgID(ctx, refTgID)
			if err == nil && referrer.Tier != domain.TierBanned {
				creator.ReferrerID = referrer.ID
			}
		}
	}

	if err := s.creators.Create(ctx, creator); err != nil {
		// Lost a registration race: the row exists now.
		if errors.Is(err, repository.ErrDuplicate) {
			return s.creators.GetByTgID(ctx, tgID)
		}
		return nil, err
	}

	s.log.Info("creator registered",
		"creator_id", creator.ID,
		"tg_id", tgID,
		"referrer_id", creator.ReferrerID,
	)
	return creator, nil
}

// Get returns the creator for a Telegram account.
func (s *CreatorService) Get(ctx context.Context, tgID int64) (*domain.Creator, error) {
	c, err := s.creators.GetByTgID(ctx, tgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	return c, nil
}

// ReferralStats returns the creator's referral counters.
func (s *CreatorService) ReferralStats(ctx context.Context, creatorID int64) (*domain.ReferralStats, error) {
	return s.referrals.Stats(ctx, creatorID)
}

// ReferralLink builds the creator's personal invite link.
func (s *CreatorService) ReferralLink(c *domain.Creator) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", s.botUsername, c.TgID)
}
