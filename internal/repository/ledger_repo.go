package repository

import (
	"context"
	"errors"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository owns every balance mutation. Each exported method is one
// database transaction: the balance change, its ledger entry and any paired
// state change land together or not at all.
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreditOutcome reports what a credit actually did.
type CreditOutcome struct {
	NewBalance        int64
	ReferrerID        int64 // 0 when no commission was applied
	CommissionApplied int64
}

// CreditVideoEarnings approves the video, credits its earnings to the owner
// and applies the referral commission, all in one transaction. The
// pending -> approved guard makes a concurrent double approval impossible:
// only the caller that flips the status credits the balance.
func (r *LedgerRepository) CreditVideoEarnings(ctx context.Context, videoID, creatorID, amount, commission int64) (CreditOutcome, error) {
	var out CreditOutcome

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `
		UPDATE videos SET status = $2, earnings = $3, credited = TRUE
		WHERE id = $1 AND status = $4
	`, videoID, domain.VideoStatusApproved, amount, domain.VideoStatusPending)
	if err != nil {
		return out, err
	}
	if result.RowsAffected() == 0 {
		return out, ErrAlreadyProcessed
	}

	err = tx.QueryRow(ctx, `
		UPDATE creators SET balance = balance + $2
		WHERE id = $1
		RETURNING balance, COALESCE(referrer_id, 0)
	`, creatorID, amount).Scan(&out.NewBalance, &out.ReferrerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, ErrNotFound
		}
		return out, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, $4)
	`, creatorID, domain.LedgerKindVideoEarnings, amount, videoID); err != nil {
		return out, err
	}

	if out.ReferrerID > 0 && commission > 0 {
		if err = creditReferrer(ctx, tx, out.ReferrerID, creatorID, commission, videoID); err != nil {
			return out, err
		}
		out.CommissionApplied = commission
	} else {
		out.ReferrerID = 0
	}

	return out, tx.Commit(ctx)
}

// Credit adds amount to a creator's balance with a ledger entry. Used for
// plain credits that are not tied to a video approval.
func (r *LedgerRepository) Credit(ctx context.Context, creatorID, amount int64, kind string, refID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE creators SET balance = balance + $2 WHERE id = $1 RETURNING balance
	`, creatorID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, $4)
	`, creatorID, kind, amount, refID); err != nil {
		return 0, err
	}

	return newBalance, tx.Commit(ctx)
}

// Debit subtracts amount, guarded so the balance can never go negative, and
// bumps total_withdrawn. No partial debits.
func (r *LedgerRepository) Debit(ctx context.Context, creatorID, amount int64, kind string, refID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err := debitCreator(ctx, tx, creatorID, amount)
	if err != nil {
		return 0, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, $4)
	`, creatorID, kind, -amount, refID); err != nil {
		return 0, err
	}

	return newBalance, tx.Commit(ctx)
}

// SetBalance unconditionally overrides the balance and returns the previous
// value so the caller can emit an audit event.
func (r *LedgerRepository) SetBalance(ctx context.Context, creatorID, amount int64) (old int64, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `SELECT balance FROM creators WHERE id = $1 FOR UPDATE`, creatorID).Scan(&old)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if _, err = tx.Exec(ctx, `UPDATE creators SET balance = $2 WHERE id = $1`, creatorID, amount); err != nil {
		return 0, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, 0)
	`, creatorID, domain.LedgerKindAdminCorrection, amount-old); err != nil {
		return 0, err
	}

	return old, tx.Commit(ctx)
}

// debitCreator is the shared conditional debit: one statement checks and
// mutates together, so a racing credit or debit can never split the balance.
func debitCreator(ctx context.Context, tx pgx.Tx, creatorID, amount int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE creators
		SET balance = balance - $2, total_withdrawn = total_withdrawn + $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`, creatorID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM creators WHERE id = $1)`, creatorID).Scan(&exists)
			if !exists {
				return 0, ErrNotFound
			}
			return 0, ErrInsufficientBalance
		}
		return 0, err
	}
	return newBalance, nil
}

// creditReferrer applies a single-hop commission inside the caller's
// transaction: referral link earnings, referrer balance and the commission
// ledger entry move together.
func creditReferrer(ctx context.Context, tx pgx.Tx, referrerID, referredID, commission, refID int64) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO referrals (referrer_id, referred_id, earnings)
		VALUES ($1, $2, $3)
		ON CONFLICT (referrer_id, referred_id)
		DO UPDATE SET earnings = referrals.earnings + EXCLUDED.earnings
	`, referrerID, referredID, commission); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE creators
		SET balance = balance + $2, referral_earnings = referral_earnings + $2
		WHERE id = $1
	`, referrerID, commission); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, $4)
	`, referrerID, domain.LedgerKindReferralCommission, commission, refID)
	return err
}
