package controller

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/unclebandit/cardscan-backend/internal/handler"
	"github.com/unclebandit/cardscan-backend/internal/middleware"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/repository"
)

const stateCookie = "oauth_state"

// GoogleAuthenticator is the part of the Google OAuth client used at sign-in.
type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, tok *oauth2.Token) (email, name string, err error)
	SaveToken(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error
}

type AuthController struct {
	Google      GoogleAuthenticator
	Users       repository.UserRepositoryInterface
	JWTSecret   string
	TokenTTL    time.Duration
	FrontendURL string
	Logger      *slog.Logger
}

func (c *AuthController) log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Login redirects to the Google consent screen.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, c.Google.AuthCodeURL(state), http.StatusFound)
}

// Callback completes sign-in: it stores the Google token and issues a
// session JWT.
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		handler.Error(w, http.StatusBadRequest, "google sign-in was cancelled: "+e)
		return
	}
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		handler.Error(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	code := q.Get("code")
	if code == "" {
		handler.Error(w, http.StatusBadRequest, "missing authorization code")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	ctx := r.Context()
	tok, err := c.Google.Exchange(ctx, code)
	if err != nil {
		c.log().Error("auth.exchange.error", "error", err)
		handler.Error(w, http.StatusBadGateway, "google sign-in failed")
		return
	}
	email, name, err := c.Google.UserInfo(ctx, tok)
	if err != nil || email == "" {
		c.log().Error("auth.userinfo.error", "error", err)
		handler.Error(w, http.StatusBadGateway, "could not read google profile")
		return
	}

	user := &model.User{Email: strings.ToLower(email), Name: name}
	if err := c.Users.Upsert(ctx, user); err != nil {
		handler.Fail(w, r, err)
		return
	}
	if err := c.Google.SaveToken(ctx, user.ID, tok); err != nil {
		handler.Fail(w, r, err)
		return
	}

	token, expiresAt, err := middleware.IssueToken(user.ID, user.Email, user.Name, c.JWTSecret, c.TokenTTL)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	c.log().Info("auth.login.ok", "user_id", user.ID)

	if c.FrontendURL != "" {
		target := strings.TrimRight(c.FrontendURL, "/") + "/auth/callback#token=" + url.QueryEscape(token)
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	handler.JSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// Me returns the signed-in user.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := c.Users.GetByID(r.Context(), userID)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, user)
}
