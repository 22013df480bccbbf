package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

// CardRepositoryInterface defines methods used by the services.
type CardRepositoryInterface interface {
	Create(ctx context.Context, c *model.Card) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Card, error)
	GetByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*model.Card, error)
	List(ctx context.Context, userID uuid.UUID, offset, limit int, search string) ([]*model.Card, int, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]*model.Card, error)
	Update(ctx context.Context, c *model.Card) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	MarkSynced(ctx context.Context, id uuid.UUID, contactID string) error
}

// CardRepository is the concrete implementation
type CardRepository struct {
	DB *sql.DB
}

const cardColumns = `id, user_id, name, email, phone, company, job_title, address, website,
	image_ref, synced, google_contact_id, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(s rowScanner) (*model.Card, error) {
	var c model.Card
	err := s.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.JobTitle, &c.Address, &c.Website,
		&c.ImageRef, &c.Synced, &c.GoogleContactID, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CardRepository) Create(ctx context.Context, c *model.Card) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	query := `
		INSERT INTO cards (id, user_id, name, email, phone, company, job_title, address, website,
			image_ref, synced, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Company, c.JobTitle, c.Address, c.Website,
		c.ImageRef, c.Synced, c.Notes, c.CreatedAt,
	)
	return err
}

// GetByID fetches a card owned by userID.
func (r *CardRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Card, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewCardNotFound(id)
	}
	return c, err
}

// GetByIDs returns the user's cards in the order of ids. Unknown ids and
// cards of other users are silently left out.
func (r *CardRepository) GetByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*model.Card, error) {
	if len(ids) == 0 {
		return []*model.Card{}, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1 AND id = ANY($2::uuid[])
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(strIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*model.Card, len(ids))
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cards := make([]*model.Card, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// List returns one page of the user's cards, newest first, optionally
// filtered by a case-insensitive match on name, email or company.
func (r *CardRepository) List(ctx context.Context, userID uuid.UUID, offset, limit int, search string) ([]*model.Card, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}
	if search != "" {
		where += ` AND (name ILIKE $2 OR email ILIKE $2 OR company ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argPos := len(args) + 1
	query := `SELECT ` + cardColumns + ` FROM cards` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cards := []*model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, c)
	}
	return cards, total, rows.Err()
}

// ListAll fetches every card of the user, oldest first.
func (r *CardRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*model.Card, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []*model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *CardRepository) Update(ctx context.Context, c *model.Card) error {
	now := time.Now()
	query := `
		UPDATE cards
		SET name=$1, email=$2, phone=$3, company=$4, job_title=$5, address=$6, website=$7,
			notes=$8, updated_at=$9
		WHERE id=$10 AND user_id=$11
	`
	res, err := r.DB.ExecContext(ctx, query,
		c.Name, c.Email, c.Phone, c.Company, c.JobTitle, c.Address, c.Website,
		c.Notes, now, c.ID, c.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCardNotFound(c.ID)
	}
	c.UpdatedAt = &now
	return nil
}

func (r *CardRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCardNotFound(id)
	}
	return nil
}

func (r *CardRepository) MarkSynced(ctx context.Context, id uuid.UUID, contactID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE cards SET synced = TRUE, google_contact_id = $1, updated_at = NOW() WHERE id = $2`,
		contactID, id)
	return err
}

var _ CardRepositoryInterface = (*CardRepository)(nil)
