package controller

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/unclebandit/cardscan-backend/internal/google"
	"github.com/unclebandit/cardscan-backend/internal/handler"
)

// DraftLister lists the user's Gmail drafts.
type DraftLister interface {
	ListDrafts(ctx context.Context, userID uuid.UUID, limit int64) ([]google.Draft, error)
}

type GmailController struct {
	Drafts DraftLister
}

// ListDrafts returns recent drafts that can seed a campaign template.
func (c *GmailController) ListDrafts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit := handler.QueryInt(r, "limit", 20)
	if limit < 1 || limit > 50 {
		limit = 20
	}

	drafts, err := c.Drafts.ListDrafts(r.Context(), userID, int64(limit))
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, map[string]interface{}{"data": drafts})
}
