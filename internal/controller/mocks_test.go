package controller_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock Repositories ---

type MockCardRepo struct {
	mu    sync.Mutex
	cards []*model.Card
}

func (m *MockCardRepo) find(userID, id uuid.UUID) *model.Card {
	for _, c := range m.cards {
		if c.ID == id && c.UserID == userID {
			return c
		}
	}
	return nil
}

func (m *MockCardRepo) Create(ctx context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = time.Now()
	m.cards = append(m.cards, c)
	return nil
}

func (m *MockCardRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.find(userID, id); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, appErrors.NewCardNotFound(id)
}

func (m *MockCardRepo) GetByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Card
	for _, id := range ids {
		if c := m.find(userID, id); c != nil {
			out = append(out, c)
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
	for _, c := range m.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCardRepo) Update(ctx context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.find(c.UserID, c.ID); cur != nil {
		*cur = *c
		return nil
	}
	return appErrors.NewCardNotFound(c.ID)
}

func (m *MockCardRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.cards {
		if c.ID == id && c.UserID == userID {
			m.cards = append(m.cards[:i], m.cards[i+1:]...)
			return nil
		}
	}
	return appErrors.NewCardNotFound(id)
}

func (m *MockCardRepo) MarkSynced(ctx context.Context, id uuid.UUID, contactID string) error {
	return nil
}

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns []*model.Campaign
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.campaigns = append(m.campaigns, c)
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.ID == id && c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *MockCampaignRepo) ListCampaigns(ctx context.Context, userID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var filtered []*model.Campaign
	for _, c := range m.campaigns {
		if c.UserID != userID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)

	// Simulate pagination
	start := offset
	end := offset + limit
	if start > total {
		return []*model.Campaign{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *MockCampaignRepo) Complete(ctx context.Context, id uuid.UUID, total, sent, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.ID == id && !c.IsTerminal() {
			c.Status = model.CampaignStatusCompleted
			c.TotalRecipients, c.SentCount, c.FailedCount = total, sent, failed
		}
	}
	return nil
}

func (m *MockCampaignRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return nil
}

type MockSentEmailRepo struct {
	mu   sync.Mutex
	rows []*model.SentEmail
}

func (m *MockSentEmailRepo) Create(ctx context.Context, e *model.SentEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, e)
	return nil
}

func (m *MockSentEmailRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.SentEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SentEmail
	for _, r := range m.rows {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockSentEmailRepo) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[string]int, error) {
	rows, _ := m.ListByCampaign(ctx, campaignID)
	stats := map[string]int{}
	for _, r := range rows {
		stats[r.Status]++
	}
	return stats, nil
}

type MockUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	tokens map[uuid.UUID]*model.OAuthToken
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: map[string]*model.User{}, tokens: map[uuid.UUID]*model.OAuthToken{}}
}

func (m *MockUserRepo) Upsert(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.users[u.Email]; ok {
		cur.Name = u.Name
		u.ID, u.CreatedAt = cur.ID, cur.CreatedAt
		return nil
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.Email] = &cp
	return nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErrors.ErrUnauthorized
}

func (m *MockUserRepo) SaveToken(ctx context.Context, t *model.OAuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.UserID] = t
	return nil
}

func (m *MockUserRepo) GetToken(ctx context.Context, userID uuid.UUID) (*model.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[userID]
	if !ok {
		return nil, appErrors.ErrNotConnected
	}
	return t, nil
}

// --- Collaborators ---

type stubExtractor struct {
	res model.ExtractionResult
}

func (s *stubExtractor) ExtractImage(ctx context.Context, data []byte, filename string) model.ExtractionResult {
	return s.res
}

type okSender struct{}

func (okSender) SendOneEmail(ctx context.Context, userID uuid.UUID, to, subject, body string) (string, error) {
	return "msg-" + to, nil
}

type fakeGoogle struct {
	users *MockUserRepo
	email string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "at-" + code, RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *fakeGoogle) UserInfo(ctx context.Context, tok *oauth2.Token) (string, string, error) {
	return f.email, "Jane Doe", nil
}

func (f *fakeGoogle) SaveToken(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error {
	return f.users.SaveToken(ctx, &model.OAuthToken{UserID: userID, AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry})
}
