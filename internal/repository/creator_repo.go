package repository

import (
	"context"
	"errors"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreatorRepository struct {
	db *pgxpool.Pool
}

func NewCreatorRepository(db *pgxpool.Pool) *CreatorRepository {
	return &CreatorRepository{db: db}
}

const creatorColumns = `id, tg_id, username, full_name, tier, balance,
	COALESCE(referrer_id, 0), referral_earnings, total_withdrawn, payout_seq, last_reward_at, created_at`

func scanCreator(row pgx.Row) (*domain.Creator, error) {
	var c domain.Creator
	if err := row.Scan(
		&c.ID, &c.TgID, &c.Username, &c.FullName, &c.Tier, &c.Balance,
		&c.ReferrerID, &c.ReferralEarnings, &c.TotalWithdrawn, &c.PayoutSeq, &c.LastRewardAt, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByTgID retrieves a creator by Telegram ID
func (r *CreatorRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Creator, error) {
	row := r.db.QueryRow(ctx, `SELECT `+creatorColumns+` FROM creators WHERE tg_id = $1`, tgID)
	return scanCreator(row)
}

// GetByID retrieves a creator by internal ID
func (r *CreatorRepository) GetByID(ctx context.Context, id int64) (*domain.Creator, error) {
	row := r.db.QueryRow(ctx, `SELECT `+creatorColumns+` FROM creators WHERE id = $1`, id)
	return scanCreator(row)
}

// Create registers a new creator. The referrer, once set here, is immutable;
// the referral link row is created in the same transaction.
func (r *CreatorRepository) Create(ctx context.Context, c *domain.Creator) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var referrer interface{}
	if c.ReferrerID > 0 {
		referrer = c.ReferrerID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO creators (tg_id, username, full_name, tier, referrer_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tg_id) DO NOTHING
		RETURNING id, created_at
	`, c.TgID, c.Username, c.FullName, domain.TierBronze, referrer).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicate
		}
		return err
	}

	if c.ReferrerID > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO referrals (referrer_id, referred_id)
			VALUES ($1, $2)
			ON CONFLICT (referrer_id, referred_id) DO NOTHING
		`, c.ReferrerID, c.ID)
		if err != nil {
			return err
		}
	}

	c.Tier = domain.TierBronze
	return tx.Commit(ctx)
}

// SetTier moves a creator to another tier, conditioned on the expected
// current tier so concurrent admin actions cannot clobber each other.
func (r *CreatorRepository) SetTier(ctx context.Context, id int64, from, to domain.Tier) error {
	result, err := r.db.Exec(ctx, `
		UPDATE creators SET tier = $3 WHERE id = $1 AND tier = $2
	`, id, from, to)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// NextPayoutSeq bumps and returns the creator's payout sequence together
// with the balance snapshot. The sequence anchors the deterministic spend
// key for balance-level payouts.
func (r *CreatorRepository) NextPayoutSeq(ctx context.Context, id int64) (seq, balance int64, err error) {
	err = r.db.QueryRow(ctx, `
		UPDATE creators SET payout_seq = payout_seq + 1
		WHERE id = $1
		RETURNING payout_seq, balance
	`, id).Scan(&seq, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	return seq, balance, nil
}

// Count returns the total number of creators
func (r *CreatorRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM creators`).Scan(&n)
	return n, err
}
