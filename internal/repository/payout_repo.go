package repository

import (
	"context"
	"errors"
	"time"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

type PayoutRepository struct {
	db *pgxpool.Pool
}

func NewPayoutRepository(db *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{db: db}
}

const payoutColumns = `id, creator_id, COALESCE(video_id, 0), amount_kop, amount_usdt, spend_key,
	COALESCE(transfer_ref, ''), status, note, COALESCE(admin_id, 0), last_attempt_at, created_at, paid_at`

func scanPayout(row pgx.Row) (*domain.PayoutRequest, error) {
	var p domain.PayoutRequest
	if err := row.Scan(
		&p.ID, &p.CreatorID, &p.VideoID, &p.AmountKop, &p.AmountUSDT, &p.SpendKey,
		&p.TransferRef, &p.Status, &p.Note, &p.AdminID, &p.LastAttempt, &p.CreatedAt, &p.PaidAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateOrGet inserts a payout request keyed by its spend key. When a request
// with the same spend key already exists, the stored row is returned instead:
// a retry of the same logical payout always lands on the same row. A balance
// request that races another open one for the same creator trips the
// uq_payouts_open_balance index and lands on that open request, so two
// concurrent withdrawals converge on a single spend key.
func (r *PayoutRepository) CreateOrGet(ctx context.Context, p *domain.PayoutRequest) (existing bool, err error) {
	var videoID interface{}
	if p.VideoID > 0 {
		videoID = p.VideoID
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO payout_requests (creator_id, video_id, amount_kop, spend_key, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (spend_key) DO NOTHING
		RETURNING id, created_at
	`, p.CreatorID, videoID, p.AmountKop, p.SpendKey, domain.PayoutStatusPending).Scan(&p.ID, &p.CreatedAt)
	if err == nil {
		p.Status = domain.PayoutStatusPending
		return false, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		stored, gerr := r.GetPendingBalancePayout(ctx, p.CreatorID)
		if gerr != nil {
			return false, gerr
		}
		*p = *stored
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	stored, err := r.GetBySpendKey(ctx, p.SpendKey)
	if err != nil {
		return false, err
	}
	*p = *stored
	return true, nil
}

// GetByID retrieves a payout request
func (r *PayoutRepository) GetByID(ctx context.Context, id int64) (*domain.PayoutRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payout_requests WHERE id = $1`, id)
	return scanPayout(row)
}

// GetBySpendKey retrieves a payout request by its spend key
func (r *PayoutRepository) GetBySpendKey(ctx context.Context, key string) (*domain.PayoutRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payout_requests WHERE spend_key = $1`, key)
	return scanPayout(row)
}

// GetPendingBalancePayout returns the creator's open balance-level request,
// if any. At most one exists at a time.
func (r *PayoutRepository) GetPendingBalancePayout(ctx context.Context, creatorID int64) (*domain.PayoutRequest, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+payoutColumns+` FROM payout_requests
		WHERE creator_id = $1 AND video_id IS NULL AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, creatorID, domain.PayoutStatusPending)
	return scanPayout(row)
}

// ListPending returns open payout requests, oldest first
func (r *PayoutRepository) ListPending(ctx context.Context, limit int) ([]domain.PayoutRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+payoutColumns+` FROM payout_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, domain.PayoutStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.PayoutRequest
	for rows.Next() {
		var p domain.PayoutRequest
		if err := rows.Scan(
			&p.ID, &p.CreatorID, &p.VideoID, &p.AmountKop, &p.AmountUSDT, &p.SpendKey,
			&p.TransferRef, &p.Status, &p.Note, &p.AdminID, &p.LastAttempt, &p.CreatedAt, &p.PaidAt,
		); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// MarkPaidAndDebit settles a balance-level payout: the pending -> paid flip,
// the debit and the withdrawal ledger entry are one transaction. The status
// guard means a duplicate confirmation can never debit twice, and the debit
// guard means the request aborts whole if the balance moved underneath it.
func (r *PayoutRepository) MarkPaidAndDebit(ctx context.Context, payoutID int64, transferRef string, amountUSDT float64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var creatorID, amount int64
	err = tx.QueryRow(ctx, `
		UPDATE payout_requests
		SET status = $2, transfer_ref = $3, amount_usdt = $4, paid_at = $5
		WHERE id = $1 AND status = $6
		RETURNING creator_id, amount_kop
	`, payoutID, domain.PayoutStatusPaid, transferRef, amountUSDT, time.Now(), domain.PayoutStatusPending).Scan(&creatorID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyProcessed
		}
		return err
	}

	if _, err = debitCreator(ctx, tx, creatorID, amount); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, $4)
	`, creatorID, domain.LedgerKindWithdrawal, -amount, payoutID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// MarkPaidDirect settles a video-level payout that bypassed the balance:
// flips the request to paid, moves the video approved -> paid_out, bumps
// total_withdrawn and applies the referral commission. The conditional flip
// guards the whole transaction, so a retried confirmation of the same spend
// key applies the cascade exactly once.
func (r *PayoutRepository) MarkPaidDirect(ctx context.Context, payoutID int64, transferRef string, amountUSDT float64, commission int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var creatorID, videoID, amount int64
	err = tx.QueryRow(ctx, `
		UPDATE payout_requests
		SET status = $2, transfer_ref = $3, amount_usdt = $4, paid_at = $5
		WHERE id = $1 AND status = $6
		RETURNING creator_id, COALESCE(video_id, 0), amount_kop
	`, payoutID, domain.PayoutStatusPaid, transferRef, amountUSDT, time.Now(), domain.PayoutStatusPending).Scan(&creatorID, &videoID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyProcessed
		}
		return err
	}

	if videoID > 0 {
		if _, err = tx.Exec(ctx, `
			UPDATE videos SET status = $2 WHERE id = $1 AND status = $3
		`, videoID, domain.VideoStatusPaidOut, domain.VideoStatusApproved); err != nil {
			return err
		}
	}

	var referrerID int64
	err = tx.QueryRow(ctx, `
		UPDATE creators SET total_withdrawn = total_withdrawn + $2
		WHERE id = $1
		RETURNING COALESCE(referrer_id, 0)
	`, creatorID, amount).Scan(&referrerID)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (creator_id, kind, amount_kop, ref_id)
		VALUES ($1, $2, $3, $4)
	`, creatorID, domain.LedgerKindDirectPayout, amount, payoutID); err != nil {
		return err
	}

	if referrerID > 0 && commission > 0 {
		if err = creditReferrer(ctx, tx, referrerID, creatorID, commission, videoID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// MarkFailed moves pending -> failed with an operator-facing note
func (r *PayoutRepository) MarkFailed(ctx context.Context, id int64, note string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE payout_requests SET status = $2, note = $3
		WHERE id = $1 AND status = $4
	`, id, domain.PayoutStatusFailed, note, domain.PayoutStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// MarkRejected moves pending -> rejected on an explicit admin decision
func (r *PayoutRepository) MarkRejected(ctx context.Context, id, adminID int64, note string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE payout_requests SET status = $2, admin_id = $3, note = $4
		WHERE id = $1 AND status = $5
	`, id, domain.PayoutStatusRejected, adminID, note, domain.PayoutStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// RecordAttempt stamps a dispatch attempt on a request that stays pending,
// keeping the last error for the operator and the attempt time for the
// retry cool-down.
func (r *PayoutRepository) RecordAttempt(ctx context.Context, id int64, note string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payout_requests SET note = $2, last_attempt_at = $3 WHERE id = $1
	`, id, note, time.Now())
	return err
}
