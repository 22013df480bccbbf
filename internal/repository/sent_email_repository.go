package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/cardscan-backend/internal/model"
)

type SentEmailRepositoryInterface interface {
	Create(ctx context.Context, e *model.SentEmail) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.SentEmail, error)
	CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[string]int, error)
}

type SentEmailRepository struct {
	DB *sql.DB
}

// Create inserts one attempt row. Rows are never updated afterwards.
func (r *SentEmailRepository) Create(ctx context.Context, e *model.SentEmail) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	query := `
		INSERT INTO sent_emails
		(id, campaign_id, card_id, recipient_email, recipient_name, subject, status, custom_note,
		 message_id, error_message, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID,
		e.CampaignID,
		e.CardID,
		e.RecipientEmail,
		e.RecipientName,
		e.Subject,
		e.Status,
		e.CustomNote,
		e.MessageID,
		e.ErrorMessage,
		e.SentAt,
		e.CreatedAt,
	)
	return err
}

// ListByCampaign returns the campaign's rows in send order.
func (r *SentEmailRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.SentEmail, error) {
	query := `
		SELECT id, campaign_id, card_id, recipient_email, recipient_name, subject, status, custom_note,
			message_id, error_message, sent_at, created_at
		FROM sent_emails
		WHERE campaign_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.SentEmail{}
	for rows.Next() {
		var e model.SentEmail
		if err := rows.Scan(
			&e.ID,
			&e.CampaignID,
			&e.CardID,
			&e.RecipientEmail,
			&e.RecipientName,
			&e.Subject,
			&e.Status,
			&e.CustomNote,
			&e.MessageID,
			&e.ErrorMessage,
			&e.SentAt,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *SentEmailRepository) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM sent_emails WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{model.SentEmailPending: 0, model.SentEmailSent: 0, model.SentEmailFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ SentEmailRepositoryInterface = (*SentEmailRepository)(nil)
