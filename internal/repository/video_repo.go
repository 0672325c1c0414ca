package repository

import (
	"context"
	"errors"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VideoRepository struct {
	db *pgxpool.Pool
}

func NewVideoRepository(db *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, creator_id, platform, url, title, views, likes, comments, shares, status, earnings, credited, created_at`

func scanVideo(row pgx.Row) (*domain.Video, error) {
	var v domain.Video
	if err := row.Scan(
		&v.ID, &v.CreatorID, &v.Platform, &v.URL, &v.Title,
		&v.Views, &v.Likes, &v.Comments, &v.Shares,
		&v.Status, &v.Earnings, &v.Credited, &v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create stores a submitted video with its engagement snapshot
func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO videos (creator_id, platform, url, title, views, likes, comments, shares, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO NOTHING
		RETURNING id, created_at
	`, v.CreatorID, v.Platform, v.URL, v.Title, v.Views, v.Likes, v.Comments, v.Shares, domain.VideoStatusPending).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicate
		}
		return err
	}
	v.Status = domain.VideoStatusPending
	return nil
}

// GetByID retrieves a video by ID
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	row := r.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

// URLExists checks whether this URL was already submitted
func (r *VideoRepository) URLExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM videos WHERE url = $1)`, url).Scan(&exists)
	return exists, err
}

// Approve records earnings and moves pending -> approved without touching
// the balance (the gold direct-payout path).
func (r *VideoRepository) Approve(ctx context.Context, id, earnings int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE videos SET status = $2, earnings = $3
		WHERE id = $1 AND status = $4
	`, id, domain.VideoStatusApproved, earnings, domain.VideoStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// Reject moves pending -> rejected
func (r *VideoRepository) Reject(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE videos SET status = $2
		WHERE id = $1 AND status = $3
	`, id, domain.VideoStatusRejected, domain.VideoStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// ListByCreator returns the creator's videos, newest first
func (r *VideoRepository) ListByCreator(ctx context.Context, creatorID int64, limit int) ([]domain.Video, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+videoColumns+` FROM videos
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, creatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

// ListPendingModeration returns videos awaiting an admin decision
func (r *VideoRepository) ListPendingModeration(ctx context.Context, limit int) ([]domain.Video, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+videoColumns+` FROM videos
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, domain.VideoStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

func collectVideos(rows pgx.Rows) ([]domain.Video, error) {
	var videos []domain.Video
	for rows.Next() {
		var v domain.Video
		if err := rows.Scan(
			&v.ID, &v.CreatorID, &v.Platform, &v.URL, &v.Title,
			&v.Views, &v.Likes, &v.Comments, &v.Shares,
			&v.Status, &v.Earnings, &v.Credited, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
