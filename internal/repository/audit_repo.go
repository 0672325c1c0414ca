package repository

import (
	"context"
	"encoding/json"

	"zenithmedia_bot/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, action, category, details)
		VALUES ($1, $2, $3, $4)
	`, log.ActorID, log.Action, log.Category, detailsJSON)
	return err
}

// ListRecent returns the newest audit entries
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_id, action, category, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		var details []byte
		if err := rows.Scan(&l.ID, &l.ActorID, &l.Action, &l.Category, &details, &l.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(details, &l.Details)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
