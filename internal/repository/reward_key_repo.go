package repository

import (
	"context"
	"errors"
	"time"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RewardKeyRepository struct {
	db *pgxpool.Pool
}

func NewRewardKeyRepository(db *pgxpool.Pool) *RewardKeyRepository {
	return &RewardKeyRepository{db: db}
}

// AddKeys uploads a batch of key values. Duplicates are skipped; the unique
// constraint on key_value is the source of truth, not this check.
func (r *RewardKeyRepository) AddKeys(ctx context.Context, values []string) (added int, err error) {
	for _, v := range values {
		result, err := r.db.Exec(ctx, `
			INSERT INTO reward_keys (key_value, status)
			VALUES ($1, $2)
			ON CONFLICT (key_value) DO NOTHING
		`, v, domain.RewardKeyAvailable)
		if err != nil {
			return added, err
		}
		added += int(result.RowsAffected())
	}
	return added, nil
}

// CountAvailable returns how many keys are free to assign
func (r *RewardKeyRepository) CountAvailable(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM reward_keys WHERE status = $1
	`, domain.RewardKeyAvailable).Scan(&n)
	return n, err
}

// AssignNext claims one available key for the creator and stamps their
// last-reward timestamp in the same transaction. The claim is a single
// conditional update over the oldest available key, so two racing claims
// can never land on the same key; SKIP LOCKED makes the loser take the next
// one instead of blocking.
func (r *RewardKeyRepository) AssignNext(ctx context.Context, creatorID int64, now time.Time) (*domain.RewardKey, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var k domain.RewardKey
	err = tx.QueryRow(ctx, `
		UPDATE reward_keys
		SET status = $2, assigned_to = $3, assigned_at = $4
		WHERE id = (
			SELECT id FROM reward_keys
			WHERE status = $1
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND status = $1
		RETURNING id, key_value, status, assigned_to, assigned_at, created_at
	`, domain.RewardKeyAvailable, domain.RewardKeyAssigned, creatorID, now).Scan(
		&k.ID, &k.Value, &k.Status, &k.AssignedTo, &k.AssignedAt, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoKeysAvailable
		}
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE creators SET last_reward_at = $2 WHERE id = $1
	`, creatorID, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &k, nil
}

// Revoke takes an assigned key out of circulation
func (r *RewardKeyRepository) Revoke(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE reward_keys SET status = $2
		WHERE id = $1 AND status = $3
	`, id, domain.RewardKeyRevoked, domain.RewardKeyAssigned)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// ListEligible returns creators who qualify for a key this cycle: enough
// approved videos inside the window, not banned, cool-down elapsed.
func (r *RewardKeyRepository) ListEligible(ctx context.Context, minVideos int, windowStart, cooldownCutoff time.Time) ([]domain.Creator, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+creatorColumns+`
		FROM creators
		WHERE tier <> $1
		  AND (last_reward_at IS NULL OR last_reward_at <= $2)
		  AND (
			SELECT COUNT(*) FROM videos v
			WHERE v.creator_id = creators.id
			  AND v.status IN ($3, $4)
			  AND v.created_at >= $5
		  ) >= $6
		ORDER BY id
	`, domain.TierBanned, cooldownCutoff, domain.VideoStatusApproved, domain.VideoStatusPaidOut, windowStart, minVideos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creators []domain.Creator
	for rows.Next() {
		var c domain.Creator
		if err := rows.Scan(
			&c.ID, &c.TgID, &c.Username, &c.FullName, &c.Tier, &c.Balance,
			&c.ReferrerID, &c.ReferralEarnings, &c.TotalWithdrawn, &c.PayoutSeq, &c.LastRewardAt, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		creators = append(creators, c)
	}
	return creators, rows.Err()
}
