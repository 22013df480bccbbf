package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/cardscan-backend/internal/handler"
	"github.com/unclebandit/cardscan-backend/internal/middleware"
)

// Routes bundles the controllers served by the API.
type Routes struct {
	Auth      *AuthController
	Cards     *CardController
	Campaigns *CampaignController
	Gmail     *GmailController
	JWTSecret string
}

// NewRouter builds the HTTP routes. Everything under /api requires a
// bearer token.
func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		handler.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth/google", func(r chi.Router) {
		r.Get("/login", rt.Auth.Login)
		r.Get("/callback", rt.Auth.Callback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(rt.JWTSecret))

		r.Get("/me", rt.Auth.Me)

		r.Route("/cards", func(r chi.Router) {
			r.Post("/scan", rt.Cards.ScanCard)
			r.Post("/sync", rt.Cards.SyncContacts)
			r.Get("/export", rt.Cards.ExportCards)
			r.Get("/", rt.Cards.ListCards)
			r.Get("/{id}", rt.Cards.GetCard)
			r.Put("/{id}", rt.Cards.UpdateCard)
			r.Delete("/{id}", rt.Cards.DeleteCard)
			r.Get("/{id}/image", rt.Cards.CardImage)
		})

		r.Get("/gmail/drafts", rt.Gmail.ListDrafts)

		// Campaign routes
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/preview", rt.Campaigns.PersonalizedPreview)
			r.Post("/send", rt.Campaigns.SendCampaign)
			r.Get("/", rt.Campaigns.ListCampaigns)
			r.Get("/{id}", rt.Campaigns.GetCampaignDetails)
		})
	})

	return r
}
