// Package google talks to the Google APIs on behalf of a signed-in user.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

// Scopes requested at consent time.
var Scopes = []string{
	"openid",
	googleoauth2.UserinfoEmailScope,
	googleoauth2.UserinfoProfileScope,
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/contacts",
}

// TokenStore persists the user's Google credential.
type TokenStore interface {
	GetToken(ctx context.Context, userID uuid.UUID) (*model.OAuthToken, error)
	SaveToken(ctx context.Context, t *model.OAuthToken) error
}

// Credentials yields API client options authenticated as a user.
type Credentials interface {
	ClientOptions(ctx context.Context, userID uuid.UUID) ([]option.ClientOption, error)
}

type OAuth struct {
	cfg    *oauth2.Config
	tokens TokenStore
	logger *slog.Logger
}

func NewOAuth(cfg config.GoogleConfig, tokens TokenStore, logger *slog.Logger) *OAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     googleauth.Endpoint,
		},
		tokens: tokens,
		logger: logger,
	}
}

// AuthCodeURL asks for offline access and forces the consent screen so a
// refresh token is always issued.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// UserInfo returns the email and display name of the token's owner.
func (o *OAuth) UserInfo(ctx context.Context, tok *oauth2.Token) (email, name string, err error) {
	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(o.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return "", "", fmt.Errorf("userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("userinfo: %w", err)
	}
	return info.Email, info.Name, nil
}

func (o *OAuth) SaveToken(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error {
	return o.tokens.SaveToken(ctx, &model.OAuthToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	})
}

// TokenSource returns a refreshing source for the user. Refreshed tokens are
// written back to the store.
func (o *OAuth) TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error) {
	stored, err := o.tokens.GetToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
	return &persistingSource{
		base:   oauth2.ReuseTokenSource(tok, o.cfg.TokenSource(context.WithoutCancel(ctx), tok)),
		last:   tok.AccessToken,
		userID: userID,
		owner:  o,
	}, nil
}

func (o *OAuth) ClientOptions(ctx context.Context, userID uuid.UUID) ([]option.ClientOption, error) {
	ts, err := o.TokenSource(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}

type persistingSource struct {
	base   oauth2.TokenSource
	userID uuid.UUID
	owner  *OAuth

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.owner.SaveToken(context.Background(), p.userID, tok); err != nil {
			p.owner.logger.Warn("google.token.persist_error", "user_id", p.userID, "error", err)
		} else {
			p.owner.logger.Info("google.token.refreshed", "user_id", p.userID)
		}
	}
	return tok, nil
}

var _ Credentials = (*OAuth)(nil)
