// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/google"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/queue"
	"github.com/unclebandit/cardscan-backend/internal/repository"
)

// DraftReader loads a Gmail draft used as a template source.
type DraftReader interface {
	GetDraft(ctx context.Context, userID uuid.UUID, draftID string) (*google.Draft, error)
}

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	CardRepo      repository.CardRepositoryInterface
	SentEmailRepo repository.SentEmailRepositoryInterface
	Drafts        DraftReader
	Dispatcher    *Dispatcher
	Queue         queue.Queue
	Topic         string
	Logger        *slog.Logger
}

type SendCampaignRequest struct {
	CampaignName string               `json:"campaignName"`
	SenderName   string               `json:"senderName"`
	DraftID      string               `json:"draftId,omitempty"`
	Subject      string               `json:"subject"`
	Body         string               `json:"body"`
	CardIDs      []uuid.UUID          `json:"cardIds"`
	CustomNotes  map[uuid.UUID]string `json:"customNotes,omitempty"`
	Async        bool                 `json:"async,omitempty"`
}

// SendCampaignResult is returned by a synchronous send.
type SendCampaignResult struct {
	CampaignID uuid.UUID `json:"campaignId"`
	Status     string    `json:"status"`
	DispatchResult
	SkippedCardIDs []uuid.UUID `json:"skippedCardIds,omitempty"`
}

type CampaignDetails struct {
	model.Campaign
	Stats      map[string]int     `json:"stats"`
	SentEmails []*model.SentEmail `json:"sent_emails"`
}

type PreviewRequest struct {
	CardID     uuid.UUID `json:"card_id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	CustomNote string    `json:"custom_note"`
	SenderName string    `json:"sender_name"`
}

type PreviewResult struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// prepared is a validated send request with its recipients resolved.
type prepared struct {
	name       string
	subject    string
	body       string
	recipients []model.Recipient
	skipped    []uuid.UUID
}

func (s *CampaignService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// RenderPreview personalises the templates for one card without sending.
func (s *CampaignService) RenderPreview(ctx context.Context, userID uuid.UUID, req PreviewRequest) (*PreviewResult, error) {
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Body) == "" {
		return nil, appErrors.Validation("template cannot be empty")
	}
	card, err := s.CardRepo.GetByID(ctx, userID, req.CardID)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		To:      card.Email,
		Subject: Personalize(req.Subject, card.CardFields, req.CustomNote, req.SenderName),
		Body:    Personalize(req.Body, card.CardFields, req.CustomNote, req.SenderName),
	}, nil
}

func (s *CampaignService) prepare(ctx context.Context, userID uuid.UUID, req SendCampaignRequest) (*prepared, error) {
	if len(req.CardIDs) == 0 {
		return nil, appErrors.Validation("cardIds must not be empty")
	}

	subject, body := req.Subject, req.Body
	if req.DraftID != "" && (strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "") {
		if s.Drafts == nil {
			return nil, appErrors.Validation("drafts are not available")
		}
		d, err := s.Drafts.GetDraft(ctx, userID, req.DraftID)
		if err != nil {
			return nil, fmt.Errorf("load draft: %w", err)
		}
		if strings.TrimSpace(subject) == "" {
			subject = d.Subject
		}
		if strings.TrimSpace(body) == "" {
			body = d.Body
		}
	}
	if strings.TrimSpace(subject) == "" {
		return nil, appErrors.Validation("subject cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return nil, appErrors.Validation("body cannot be empty")
	}

	recipients, skipped, err := s.recipients(ctx, userID, req.CardIDs, req.CustomNotes)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, appErrors.Validation("none of the selected cards has an email address")
	}

	name := strings.TrimSpace(req.CampaignName)
	if name == "" {
		name = "Campaign " + time.Now().Format("2006-01-02 15:04")
	}
	return &prepared{name: name, subject: subject, body: body, recipients: recipients, skipped: skipped}, nil
}

// recipients resolves card ids in request order. Unknown cards and cards
// without an email are returned as skipped.
func (s *CampaignService) recipients(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, notes map[uuid.UUID]string) ([]model.Recipient, []uuid.UUID, error) {
	cards, err := s.CardRepo.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch cards: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	var recipients []model.Recipient
	var skipped []uuid.UUID
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || c.Email == "" {
			skipped = append(skipped, id)
			continue
		}
		recipients = append(recipients, model.Recipient{
			ID:         c.ID,
			Email:      c.Email,
			Name:       c.Name,
			CustomNote: notes[c.ID],
			Card:       c.CardFields,
		})
	}
	return recipients, skipped, nil
}

func (s *CampaignService) createCampaign(ctx context.Context, userID uuid.UUID, draftID string, p *prepared) (*model.Campaign, error) {
	now := time.Now()
	c := &model.Campaign{
		UserID:          userID,
		Name:            p.name,
		Subject:         p.subject,
		TotalRecipients: len(p.recipients),
		Status:          model.CampaignStatusInProgress,
		StartedAt:       &now,
	}
	if draftID != "" {
		c.DraftID = &draftID
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// SendCampaign creates the campaign and sends it before returning.
func (s *CampaignService) SendCampaign(ctx context.Context, userID uuid.UUID, req SendCampaignRequest) (*SendCampaignResult, error) {
	p, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	campaign, err := s.createCampaign(ctx, userID, req.DraftID, p)
	if err != nil {
		return nil, err
	}

	res := s.run(ctx, campaign, p.recipients, p.subject, p.body, req.SenderName)
	return &SendCampaignResult{
		CampaignID:     campaign.ID,
		Status:         model.CampaignStatusCompleted,
		DispatchResult: res,
		SkippedCardIDs: p.skipped,
	}, nil
}

// QueueCampaign creates the campaign and hands it to a worker.
func (s *CampaignService) QueueCampaign(ctx context.Context, userID uuid.UUID, req SendCampaignRequest) (*model.Campaign, []uuid.UUID, error) {
	if s.Queue == nil {
		return nil, nil, appErrors.Validation("asynchronous sending is not enabled")
	}
	p, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}
	campaign, err := s.createCampaign(ctx, userID, req.DraftID, p)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, len(p.recipients))
	for i, r := range p.recipients {
		ids[i] = r.ID
	}
	job := queue.CampaignJob{
		CampaignID:  campaign.ID,
		UserID:      userID,
		SenderName:  req.SenderName,
		Subject:     p.subject,
		Body:        p.body,
		CardIDs:     ids,
		CustomNotes: req.CustomNotes,
	}
	payload, err := job.Encode()
	if err == nil {
		err = s.Queue.Publish(s.Topic, payload)
	}
	if err != nil {
		if merr := s.CampaignRepo.MarkFailed(context.WithoutCancel(ctx), campaign.ID); merr != nil {
			s.logger().Error("campaign.queue.mark_failed_error", "campaign_id", campaign.ID, "error", merr)
		}
		return nil, nil, fmt.Errorf("enqueue campaign: %w", err)
	}

	s.logger().Info("campaign.queued", "campaign_id", campaign.ID, "recipients", len(ids))
	return campaign, p.skipped, nil
}

// RunCampaign executes a queued campaign. Jobs for campaigns already in a
// terminal status are ignored so redelivery never sends twice.
func (s *CampaignService) RunCampaign(ctx context.Context, job queue.CampaignJob) error {
	campaign, err := s.CampaignRepo.GetByID(ctx, job.UserID, job.CampaignID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			s.logger().Warn("campaign.run.missing", "campaign_id", job.CampaignID)
			return nil
		}
		return err
	}
	if campaign.IsTerminal() {
		s.logger().Info("campaign.run.already_done", "campaign_id", campaign.ID, "status", campaign.Status)
		return nil
	}

	recipients, skipped, err := s.recipients(ctx, job.UserID, job.CardIDs, job.CustomNotes)
	if err != nil {
		if merr := s.CampaignRepo.MarkFailed(context.WithoutCancel(ctx), campaign.ID); merr != nil {
			s.logger().Error("campaign.run.mark_failed_error", "campaign_id", campaign.ID, "error", merr)
		}
		return err
	}
	if len(skipped) > 0 {
		s.logger().Warn("campaign.run.cards_gone", "campaign_id", campaign.ID, "skipped", len(skipped))
	}

	s.run(ctx, campaign, recipients, job.Subject, job.Body, job.SenderName)
	return nil
}

// run dispatches to every recipient, records one sent email row per outcome
// and completes the campaign.
func (s *CampaignService) run(ctx context.Context, campaign *model.Campaign, recipients []model.Recipient, subject, body, senderName string) DispatchResult {
	ctx = context.WithoutCancel(ctx)
	log := s.logger().With("campaign_id", campaign.ID)
	log.Info("campaign.dispatch.start", "recipients", len(recipients))

	res := s.Dispatcher.SendCampaign(ctx, campaign.UserID, recipients, subject, body, senderName, func(r RecipientResult) {
		if err := s.SentEmailRepo.Create(ctx, sentEmailFor(campaign.ID, r)); err != nil {
			log.Error("campaign.sent_email.persist_error", "recipient_id", r.RecipientID, "error", err)
		}
	})

	if err := s.CampaignRepo.Complete(ctx, campaign.ID, res.TotalRecipients, res.SentCount, res.FailedCount); err != nil {
		log.Error("campaign.complete.persist_error", "error", err)
	}
	campaign.Status = model.CampaignStatusCompleted
	campaign.TotalRecipients = res.TotalRecipients
	campaign.SentCount = res.SentCount
	campaign.FailedCount = res.FailedCount
	return res
}

func sentEmailFor(campaignID uuid.UUID, r RecipientResult) *model.SentEmail {
	cardID := r.RecipientID
	e := &model.SentEmail{
		CampaignID:     campaignID,
		CardID:         &cardID,
		RecipientEmail: r.Email,
		RecipientName:  r.Name,
		Subject:        r.Subject,
		CustomNote:     r.CustomNote,
	}
	if r.Success {
		now := time.Now()
		msgID := r.MessageID
		e.Status = model.SentEmailSent
		e.MessageID = &msgID
		e.SentAt = &now
	} else {
		errMsg := r.Error
		e.Status = model.SentEmailFailed
		e.ErrorMessage = &errMsg
	}
	return e
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, userID uuid.UUID, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	switch status {
	case "", model.CampaignStatusDraft, model.CampaignStatusInProgress, model.CampaignStatusCompleted, model.CampaignStatusFailed:
	default:
		return nil, nil, appErrors.Validation("unknown status %q", status)
	}
	page, pageSize, offset := paginate(page, pageSize)

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, userID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}
	return campaigns, pagination(page, pageSize, total), nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, userID, campaignID uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	counts, err := s.SentEmailRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("count sent emails: %w", err)
	}
	stats := map[string]int{"total": 0}
	for status, n := range counts {
		stats[status] = n
		stats["total"] += n
	}

	emails, err := s.SentEmailRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list sent emails: %w", err)
	}

	return &CampaignDetails{Campaign: *campaign, Stats: stats, SentEmails: emails}, nil
}
