package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, userID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error)
	Complete(ctx context.Context, id uuid.UUID, total, sent, failed int) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, name, draft_id, subject, total_recipients, sent_count, failed_count,
	status, started_at, completed_at, created_at`

func scanCampaign(s rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.DraftID, &c.Subject, &c.TotalRecipients, &c.SentCount,
		&c.FailedCount, &c.Status, &c.StartedAt, &c.CompletedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	query := `
		INSERT INTO campaigns (id, user_id, name, draft_id, subject, total_recipients, sent_count, failed_count,
			status, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.Name, c.DraftID, c.Subject, c.TotalRecipients, c.Status, c.StartedAt, c.CreatedAt)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, err
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, userID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}
	argPos := 2

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

// ====================== Status transitions ======================

// Complete records the final counts. A campaign already in a terminal status
// is left untouched.
func (r *CampaignRepository) Complete(ctx context.Context, id uuid.UUID, total, sent, failed int) error {
	query := `
		UPDATE campaigns
		SET status=$1, total_recipients=$2, sent_count=$3, failed_count=$4, completed_at=NOW()
		WHERE id=$5 AND status IN ('draft', 'in_progress')
	`
	_, err := r.DB.ExecContext(ctx, query, model.CampaignStatusCompleted, total, sent, failed, id)
	return err
}

func (r *CampaignRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE campaigns
		SET status=$1, completed_at=NOW()
		WHERE id=$2 AND status IN ('draft', 'in_progress')
	`
	_, err := r.DB.ExecContext(ctx, query, model.CampaignStatusFailed, id)
	return err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
