package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/google"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock Repositories ---

type MockCardRepo struct {
	mu     sync.Mutex
	cards  map[uuid.UUID]*model.Card
	order  []uuid.UUID
	synced map[uuid.UUID]string
}

func NewMockCardRepo(cards ...*model.Card) *MockCardRepo {
	m := &MockCardRepo{cards: map[uuid.UUID]*model.Card{}, synced: map[uuid.UUID]string{}}
	for _, c := range cards {
		m.cards[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	return m
}

func (m *MockCardRepo) Create(ctx context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	m.cards[c.ID] = c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *MockCardRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok || c.UserID != userID {
		return nil, appErrors.NewCardNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCardRepo) GetByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Card{}
	for _, id := range ids {
		if c, ok := m.cards[id]; ok && c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCardRepo) List(ctx context.Context, userID uuid.UUID, offset, limit int, search string) ([]*model.Card, int, error) {
	all, _ := m.ListAll(ctx, userID)
	if offset >= len(all) {
		return []*model.Card{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockCardRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Card{}
	for _, id := range m.order {
		if c, ok := m.cards[id]; ok && c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCardRepo) Update(ctx context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[c.ID]; !ok {
		return appErrors.NewCardNotFound(c.ID)
	}
	cp := *c
	m.cards[c.ID] = &cp
	return nil
}

func (m *MockCardRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return appErrors.NewCardNotFound(id)
	}
	delete(m.cards, id)
	return nil
}

func (m *MockCardRepo) MarkSynced(ctx context.Context, id uuid.UUID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced[id] = contactID
	if c, ok := m.cards[id]; ok {
		c.Synced = true
		c.GoogleContactID = &contactID
	}
	return nil
}

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*model.Campaign
	completed int
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{campaigns: map[uuid.UUID]*model.Campaign{}}
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListCampaigns(ctx context.Context, userID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}

func (m *MockCampaignRepo) Complete(ctx context.Context, id uuid.UUID, total, sent, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return errors.New("no such campaign")
	}
	if c.IsTerminal() {
		return nil
	}
	now := time.Now()
	c.Status = model.CampaignStatusCompleted
	c.TotalRecipients, c.SentCount, c.FailedCount = total, sent, failed
	c.CompletedAt = &now
	m.completed++
	return nil
}

func (m *MockCampaignRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.campaigns[id]; ok && !c.IsTerminal() {
		c.Status = model.CampaignStatusFailed
	}
	return nil
}

func (m *MockCampaignRepo) get(id uuid.UUID) *model.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id]
}

type MockSentEmailRepo struct {
	mu   sync.Mutex
	rows []*model.SentEmail
}

func (m *MockSentEmailRepo) Create(ctx context.Context, e *model.SentEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	m.rows = append(m.rows, e)
	return nil
}

func (m *MockSentEmailRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.SentEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.SentEmail{}
	for _, r := range m.rows {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockSentEmailRepo) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[string]int, error) {
	rows, _ := m.ListByCampaign(ctx, campaignID)
	stats := map[string]int{model.SentEmailPending: 0, model.SentEmailSent: 0, model.SentEmailFailed: 0}
	for _, r := range rows {
		stats[r.Status]++
	}
	return stats, nil
}

// --- Collaborators ---

type sentMail struct {
	To, Subject, Body string
}

// MockSender records every send and fails for addresses in failFor.
type MockSender struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]bool
	panicOn map[string]bool
}

func (m *MockSender) SendOneEmail(ctx context.Context, userID uuid.UUID, to, subject, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	if m.panicOn[to] {
		panic("smtp exploded")
	}
	if m.failFor[to] {
		return "", errors.New("mailbox unavailable")
	}
	return "msg-" + to, nil
}

type MockDrafts struct {
	drafts map[string]*google.Draft
}

func (m *MockDrafts) GetDraft(ctx context.Context, userID uuid.UUID, draftID string) (*google.Draft, error) {
	d, ok := m.drafts[draftID]
	if !ok {
		return nil, errors.New("draft not found")
	}
	return d, nil
}

// recordSleep collects pacing delays instead of sleeping.
type recordSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordSleep) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
}

func newCard(userID uuid.UUID, name, email string) *model.Card {
	return &model.Card{
		ID:         uuid.New(),
		UserID:     userID,
		CardFields: model.CardFields{Name: name, Email: email, Company: "Acme"},
		CreatedAt:  time.Now(),
	}
}
