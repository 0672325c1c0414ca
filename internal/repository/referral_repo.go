package repository

import (
	"context"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// ListByReferrer returns the creator's referral links, newest first
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID int64) ([]domain.ReferralLink, error) {
	rows, err := r.db.Query(ctx, `
		SELECT referrer_id, referred_id, earnings, created_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ReferralLink
	for rows.Next() {
		var l domain.ReferralLink
		if err := rows.Scan(&l.ReferrerID, &l.ReferredID, &l.Earnings, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Stats returns referral counts and cumulative commission for a creator
func (r *ReferralRepository) Stats(ctx context.Context, referrerID int64) (*domain.ReferralStats, error) {
	stats := &domain.ReferralStats{}
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(earnings), 0)
		FROM referrals
		WHERE referrer_id = $1
	`, referrerID).Scan(&stats.TotalReferrals, &stats.TotalEarned)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
