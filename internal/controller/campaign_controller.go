// internal/controller/campaign_controller.go
package controller

import (
	"net/http"

	"github.com/unclebandit/cardscan-backend/internal/handler"
	"github.com/unclebandit/cardscan-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body service.PreviewRequest
	if err := handler.Decode(r, &body); err != nil {
		handler.Fail(w, r, err)
		return
	}

	preview, err := c.CampaignService.RenderPreview(r.Context(), userID, body)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, preview)
}

// SendCampaign sends synchronously, or queues the campaign and answers 202
// when the request sets async.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body service.SendCampaignRequest
	if err := handler.Decode(r, &body); err != nil {
		handler.Fail(w, r, err)
		return
	}

	if body.Async {
		campaign, skipped, err := c.CampaignService.QueueCampaign(r.Context(), userID, body)
		if err != nil {
			handler.Fail(w, r, err)
			return
		}
		handler.JSON(w, http.StatusAccepted, map[string]interface{}{
			"campaign":       campaign,
			"skippedCardIds": skipped,
		})
		return
	}

	result, err := c.CampaignService.SendCampaign(r.Context(), userID, body)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, result)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	page := handler.QueryInt(r, "page", 1)
	pageSize := handler.QueryInt(r, "page_size", 20)
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), userID, page, pageSize, status)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // already contains total_count, total_pages, page, page_size
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := handler.URLID(r, "id")
	if err != nil {
		handler.Fail(w, r, err)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(r.Context(), userID, id)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, details)
}
