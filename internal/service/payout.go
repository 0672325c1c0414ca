package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"zenithmedia_bot/internal/cryptopay"
	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/metrics"
	"zenithmedia_bot/internal/repository"
)

// CreatorStore is the creator surface the payout flow needs.
type CreatorStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Creator, error)
	NextPayoutSeq(ctx context.Context, id int64) (seq, balance int64, err error)
}

// VideoStore covers moderation-side video transitions.
type VideoStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
	Approve(ctx context.Context, id, earnings int64) error
	Reject(ctx context.Context, id int64) error
}

// PayoutStore is the payout request surface; satisfied by
// *repository.PayoutRepository.
type PayoutStore interface {
	CreateOrGet(ctx context.Context, p *domain.PayoutRequest) (existing bool, err error)
	GetByID(ctx context.Context, id int64) (*domain.PayoutRequest, error)
	GetBySpendKey(ctx context.Context, key string) (*domain.PayoutRequest, error)
	GetPendingBalancePayout(ctx context.Context, creatorID int64) (*domain.PayoutRequest, error)
	ListPending(ctx context.Context, limit int) ([]domain.PayoutRequest, error)
	MarkPaidAndDebit(ctx context.Context, payoutID int64, transferRef string, amountUSDT float64) error
	MarkPaidDirect(ctx context.Context, payoutID int64, transferRef string, amountUSDT float64, commission int64) error
	MarkFailed(ctx context.Context, id int64, note string) error
	MarkRejected(ctx context.Context, id, adminID int64, note string) error
	RecordAttempt(ctx context.Context, id int64, note string) error
}

// Payer submits transfers; satisfied by *Dispatcher.
type Payer interface {
	Convert(ctx context.Context, amountKop int64) (float64, error)
	Dispatch(ctx context.Context, recipientTgID, amountKop int64, spendKey string) (*DispatchResult, error)
}

// PayoutConfig carries the policy knobs for payouts.
type PayoutConfig struct {
	MinWithdrawalKop  int64
	TikTokRatePer1000 int64
	Cooldown          time.Duration
}

// PayoutService drives the payout request lifecycle. Every request is keyed
// by a deterministic spend key, every settlement happens through a single
// conditional status flip, and a dispatch failure never leaves partial state:
// the request either reaches paid exactly once or stays pending with the
// failure noted.
type PayoutService struct {
	creators   CreatorStore
	videos     VideoStore
	payouts    PayoutStore
	ledger     *LedgerService
	dispatcher Payer
	audit      Auditor
	cfg        PayoutConfig
	nowFn      func() time.Time
	log        *slog.Logger
}

func NewPayoutService(
	creators CreatorStore,
	videos VideoStore,
	payouts PayoutStore,
	ledger *LedgerService,
	dispatcher Payer,
	audit Auditor,
	cfg PayoutConfig,
) *PayoutService {
	return &PayoutService{
		creators:   creators,
		videos:     videos,
		payouts:    payouts,
		ledger:     ledger,
		dispatcher: dispatcher,
		audit:      audit,
		cfg:        cfg,
		nowFn:      time.Now,
		log:        logger.With("component", "payout"),
	}
}

// AmountForVideo computes the earnings for an approved video. TikTok pays by
// views at the configured rate per thousand; YouTube videos are priced by the
// moderating admin.
func (s *PayoutService) AmountForVideo(v *domain.Video, adminAmountKop int64) (int64, error) {
	switch v.Platform {
	case domain.PlatformTikTok:
		return v.Views * s.cfg.TikTokRatePer1000 / 1000, nil
	case domain.PlatformYouTube:
		if adminAmountKop <= 0 {
			return 0, ErrInvalidAmount
		}
		return adminAmountKop, nil
	default:
		return 0, ErrInvalidAmount
	}
}

// ApproveVideo is the admin approval decision. Bronze creators get the
// earnings credited to their balance (with the referral cascade) in one
// storage transaction. Gold creators get an immediate direct transfer; when
// the converted amount is below the rail minimum the earnings fall back to
// the balance, and when the transfer cannot be confirmed the video stays
// approved with a pending payout request queued for retry.
func (s *PayoutService) ApproveVideo(ctx context.Context, adminID, videoID, adminAmountKop int64) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	if video.Status != domain.VideoStatusPending {
		return ErrAlreadyModerated
	}

	creator, err := s.creators.GetByID(ctx, video.CreatorID)
	if err != nil {
		return err
	}
	if creator.Tier == domain.TierBanned {
		return ErrCreatorBanned
	}

	amount, err := s.AmountForVideo(video, adminAmountKop)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	s.audit.Audit(ctx, adminID, domain.AuditActionApproveVideo, domain.AuditCategoryModeration, map[string]interface{}{
		"video_id":   videoID,
		"creator_id": creator.ID,
		"amount_kop": amount,
	})

	if creator.Tier != domain.TierGold {
		return s.creditToBalance(ctx, video, creator, amount)
	}

	// Direct payout path. Amounts under the rail minimum cannot be
	// transferred, so they accrue on the balance like bronze earnings.
	if _, err := s.dispatcher.Convert(ctx, amount); err != nil {
		if errors.Is(err, ErrBelowMinimum) {
			return s.creditToBalance(ctx, video, creator, amount)
		}
		// Rate unknown: approve and queue, the transfer runs on retry.
		if qerr := s.queueVideoPayout(ctx, video, creator, amount); qerr != nil {
			return qerr
		}
		return err
	}

	if err := s.queueVideoPayout(ctx, video, creator, amount); err != nil {
		return err
	}
	return s.dispatchVideoPayout(ctx, creator, VideoSpendKey(videoID))
}

// RejectVideo is the admin rejection decision; terminal, no money moves.
func (s *PayoutService) RejectVideo(ctx context.Context, adminID, videoID int64) error {
	if err := s.videos.Reject(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrAlreadyModerated
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	s.audit.Audit(ctx, adminID, domain.AuditActionRejectVideo, domain.AuditCategoryModeration, map[string]interface{}{
		"video_id": videoID,
	})
	return nil
}

func (s *PayoutService) creditToBalance(ctx context.Context, video *domain.Video, creator *domain.Creator, amount int64) error {
	_, err := s.ledger.CreditVideo(ctx, video.ID, creator.ID, amount)
	if errors.Is(err, repository.ErrAlreadyProcessed) {
		return ErrAlreadyModerated
	}
	return err
}

// queueVideoPayout approves the video and opens (or finds) the payout request
// under the video's spend key.
func (s *PayoutService) queueVideoPayout(ctx context.Context, video *domain.Video, creator *domain.Creator, amount int64) error {
	if err := s.videos.Approve(ctx, video.ID, amount); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrAlreadyModerated
		}
		return err
	}

	req := &domain.PayoutRequest{
		CreatorID: creator.ID,
		VideoID:   video.ID,
		AmountKop: amount,
		SpendKey:  VideoSpendKey(video.ID),
	}
	_, err := s.payouts.CreateOrGet(ctx, req)
	return err
}

// RequestVideoPayout lets a gold creator (re-)trigger the direct transfer for
// an approved video. The spend key pins the retry to the original request, so
// repeated taps cannot pay twice.
func (s *PayoutService) RequestVideoPayout(ctx context.Context, creatorID, videoID int64) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	if video.CreatorID != creatorID {
		return ErrNotOwner
	}
	switch video.Status {
	case domain.VideoStatusPaidOut:
		return ErrAlreadyPaid
	case domain.VideoStatusApproved:
	default:
		return ErrVideoNotApproved
	}
	if video.Credited {
		return ErrFundsOnBalance
	}

	creator, err := s.creators.GetByID(ctx, creatorID)
	if err != nil {
		return err
	}
	if creator.Tier == domain.TierBanned {
		return ErrCreatorBanned
	}

	req := &domain.PayoutRequest{
		CreatorID: creatorID,
		VideoID:   videoID,
		AmountKop: video.Earnings,
		SpendKey:  VideoSpendKey(videoID),
	}
	if _, err := s.payouts.CreateOrGet(ctx, req); err != nil {
		return err
	}
	switch req.Status {
	case domain.PayoutStatusPending:
	case domain.PayoutStatusPaid:
		return ErrAlreadyPaid
	default:
		return ErrNotRetryable
	}

	if err := s.checkCooldown(req); err != nil {
		return err
	}
	return s.dispatchVideoPayout(ctx, creator, req.SpendKey)
}

// dispatchVideoPayout runs the transfer for the pending request under the
// given spend key and settles it. On success the conditional pending -> paid
// flip marks the video paid_out and applies the referral commission exactly
// once; on failure the request stays pending with the error noted.
func (s *PayoutService) dispatchVideoPayout(ctx context.Context, creator *domain.Creator, spendKey string) error {
	req, err := s.payouts.GetBySpendKey(ctx, spendKey)
	if err != nil {
		return err
	}
	if req.Status != domain.PayoutStatusPending {
		if req.Status == domain.PayoutStatusPaid {
			return ErrAlreadyPaid
		}
		return ErrNotRetryable
	}

	result, err := s.dispatcher.Dispatch(ctx, creator.TgID, req.AmountKop, req.SpendKey)
	if err != nil {
		if nerr := s.payouts.RecordAttempt(ctx, req.ID, err.Error()); nerr != nil {
			s.log.Error("attempt note failed", "payout_id", req.ID, "error", nerr)
		}
		return err
	}

	err = s.payouts.MarkPaidDirect(ctx, req.ID, result.TransferRef, result.AmountUSDT, s.ledger.CommissionFor(req.AmountKop))
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return nil
		}
		return err
	}

	metrics.PayoutsPaidTotal.Inc()
	s.log.Info("direct payout settled",
		"payout_id", req.ID,
		"creator_id", creator.ID,
		"amount_kop", req.AmountKop,
		"transfer_ref", result.TransferRef,
	)
	return nil
}

// RequestBalancePayout withdraws the creator's full balance. If an earlier
// request is still pending it is retried under its original spend key;
// otherwise a new request is opened with a fresh payout sequence number.
// The balance is debited only inside the same transaction that flips the
// request to paid, so a failed transfer leaves it untouched.
func (s *PayoutService) RequestBalancePayout(ctx context.Context, creatorID int64) (*domain.PayoutRequest, error) {
	creator, err := s.creators.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	if creator.Tier == domain.TierBanned {
		return nil, ErrCreatorBanned
	}

	req, err := s.payouts.GetPendingBalancePayout(ctx, creatorID)
	switch {
	case err == nil:
		if cerr := s.checkCooldown(req); cerr != nil {
			return req, cerr
		}
	case errors.Is(err, repository.ErrNotFound):
		req, err = s.openBalancePayout(ctx, creator)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return req, s.dispatchBalancePayout(ctx, creator, req)
}

func (s *PayoutService) openBalancePayout(ctx context.Context, creator *domain.Creator) (*domain.PayoutRequest, error) {
	if creator.Balance < s.cfg.MinWithdrawalKop {
		return nil, ErrAmountBelowMinimum
	}

	seq, balance, err := s.creators.NextPayoutSeq(ctx, creator.ID)
	if err != nil {
		return nil, err
	}
	if balance < s.cfg.MinWithdrawalKop {
		return nil, ErrAmountBelowMinimum
	}

	req := &domain.PayoutRequest{
		CreatorID: creator.ID,
		AmountKop: balance,
		SpendKey:  BalanceSpendKey(creator.ID, seq),
	}
	if _, err := s.payouts.CreateOrGet(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// dispatchBalancePayout runs the transfer and settles the request. Terminal
// rail rejections close the request as failed; everything else (including an
// unknown outcome after a timeout) leaves it pending for reconciliation.
func (s *PayoutService) dispatchBalancePayout(ctx context.Context, creator *domain.Creator, req *domain.PayoutRequest) error {
	result, err := s.dispatcher.Dispatch(ctx, creator.TgID, req.AmountKop, req.SpendKey)
	if err != nil {
		var rf *RailFailure
		if errors.As(err, &rf) && !rf.Kind.Retryable() {
			if ferr := s.payouts.MarkFailed(ctx, req.ID, err.Error()); ferr != nil && !errors.Is(ferr, repository.ErrAlreadyProcessed) {
				return ferr
			}
			req.Status = domain.PayoutStatusFailed
			return err
		}
		if nerr := s.payouts.RecordAttempt(ctx, req.ID, err.Error()); nerr != nil {
			s.log.Error("attempt note failed", "payout_id", req.ID, "error", nerr)
		}
		return err
	}

	err = s.payouts.MarkPaidAndDebit(ctx, req.ID, result.TransferRef, result.AmountUSDT)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			req.Status = domain.PayoutStatusPaid
			return nil
		}
		return err
	}

	req.Status = domain.PayoutStatusPaid
	req.AmountUSDT = result.AmountUSDT
	req.TransferRef = result.TransferRef
	metrics.PayoutsPaidTotal.Inc()
	s.log.Info("balance payout settled",
		"payout_id", req.ID,
		"creator_id", creator.ID,
		"amount_kop", req.AmountKop,
		"transfer_ref", result.TransferRef,
	)
	return nil
}

// checkCooldown rejects a creator-initiated retry that comes too soon after
// the previous dispatch attempt. Admin retries bypass this.
func (s *PayoutService) checkCooldown(req *domain.PayoutRequest) error {
	if s.cfg.Cooldown <= 0 || req.LastAttempt == nil {
		return nil
	}
	if s.nowFn().Sub(*req.LastAttempt) < s.cfg.Cooldown {
		return ErrCooldownActive
	}
	return nil
}

// AdminRetryPayout re-dispatches any pending request, ignoring the creator
// cool-down.
func (s *PayoutService) AdminRetryPayout(ctx context.Context, adminID, payoutID int64) error {
	req, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if req.Status != domain.PayoutStatusPending {
		return ErrNotRetryable
	}

	creator, err := s.creators.GetByID(ctx, req.CreatorID)
	if err != nil {
		return err
	}

	s.audit.Audit(ctx, adminID, domain.AuditActionRetryPayout, domain.AuditCategoryPayout, map[string]interface{}{
		"payout_id":  payoutID,
		"creator_id": creator.ID,
		"amount_kop": req.AmountKop,
	})

	if req.VideoID > 0 {
		return s.dispatchVideoPayout(ctx, creator, req.SpendKey)
	}
	return s.dispatchBalancePayout(ctx, creator, req)
}

// AdminRejectPayout closes a pending request without moving money.
func (s *PayoutService) AdminRejectPayout(ctx context.Context, adminID, payoutID int64, note string) error {
	if err := s.payouts.MarkRejected(ctx, payoutID, adminID, note); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrNotRetryable
		}
		return err
	}
	s.audit.Audit(ctx, adminID, domain.AuditActionRejectPayout, domain.AuditCategoryPayout, map[string]interface{}{
		"payout_id": payoutID,
		"note":      note,
	})
	return nil
}

// ListPending surfaces open requests for the admin review queue.
func (s *PayoutService) ListPending(ctx context.Context, limit int) ([]domain.PayoutRequest, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.payouts.ListPending(ctx, limit)
}

// FailureAdvice renders a classified rail failure for the operator chat.
func FailureAdvice(err error) string {
	var rf *RailFailure
	if !errors.As(err, &rf) {
		return ""
	}
	switch rf.Kind {
	case cryptopay.FailPermissionDisabled:
		return "transfers are disabled for the app token, enable them in the rail settings"
	case cryptopay.FailRecipientUnregistered:
		return "the recipient has no wallet yet, ask them to open the payment bot first"
	case cryptopay.FailInsufficientFunds:
		return "the app balance is too low, top it up and retry"
	case cryptopay.FailUnsupportedField:
		return "the transfer request carries an unsupported field"
	default:
		return "the transfer outcome is unknown, check the rail before retrying"
	}
}
