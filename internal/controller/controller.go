// Package controller exposes the services over HTTP.
package controller

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/unclebandit/cardscan-backend/internal/handler"
	"github.com/unclebandit/cardscan-backend/internal/middleware"
)

// currentUser returns the authenticated user or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		handler.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}
