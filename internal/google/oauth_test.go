package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/cardscan-backend/internal/config"
	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

type memTokens struct {
	tokens map[uuid.UUID]*model.OAuthToken
	saves  int
}

func (m *memTokens) GetToken(ctx context.Context, userID uuid.UUID) (*model.OAuthToken, error) {
	t, ok := m.tokens[userID]
	if !ok {
		return nil, appErrors.ErrNotConnected
	}
	return t, nil
}

func (m *memTokens) SaveToken(ctx context.Context, t *model.OAuthToken) error {
	m.saves++
	m.tokens[t.UserID] = t
	return nil
}

func TestOAuth_AuthCodeURL(t *testing.T) {
	o := NewOAuth(config.GoogleConfig{ClientID: "cid", RedirectURL: "http://localhost/cb"}, &memTokens{}, nil)
	u := o.AuthCodeURL("state-1")
	for _, want := range []string{"access_type=offline", "prompt=consent", "state=state-1", "client_id=cid"} {
		if !strings.Contains(u, want) {
			t.Errorf("url %q missing %q", u, want)
		}
	}
}

func TestOAuth_TokenSourceReusesValidToken(t *testing.T) {
	userID := uuid.New()
	store := &memTokens{tokens: map[uuid.UUID]*model.OAuthToken{
		userID: {UserID: userID, AccessToken: "at-1", RefreshToken: "rt", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)},
	}}
	o := NewOAuth(config.GoogleConfig{ClientID: "cid"}, store, nil)

	ts, err := o.TokenSource(context.Background(), userID)
	if err != nil {
		t.Fatalf("TokenSource: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "at-1" {
		t.Errorf("access token = %q", tok.AccessToken)
	}
	if store.saves != 0 {
		t.Errorf("unchanged token should not be saved, saves = %d", store.saves)
	}
}

func TestOAuth_NotConnected(t *testing.T) {
	o := NewOAuth(config.GoogleConfig{}, &memTokens{tokens: map[uuid.UUID]*model.OAuthToken{}}, nil)
	if _, err := o.ClientOptions(context.Background(), uuid.New()); err != appErrors.ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}
