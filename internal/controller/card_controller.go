package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/handler"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CardController struct {
	CardService    *service.CardService
	ExportService  *service.ExportService
	MaxUploadBytes int64
}

// ScanStatus maps an extraction outcome to the response status of a scan.
func ScanStatus(res model.ExtractionResult) int {
	switch {
	case res.Success:
		return http.StatusCreated
	case res.RateLimited:
		return http.StatusTooManyRequests
	case res.FailureKind == string(appErrors.KindAuth):
		return http.StatusBadGateway
	case res.FailureKind == string(appErrors.KindConfiguration):
		return http.StatusServiceUnavailable
	}
	return http.StatusUnprocessableEntity
}

// ScanCard accepts a multipart upload in the "image" field.
func (c *CardController) ScanCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := c.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			handler.Error(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		handler.Error(w, http.StatusBadRequest, "expected multipart form with an image field")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		handler.Error(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handler.Error(w, http.StatusBadRequest, "could not read image")
		return
	}
	if len(data) == 0 {
		handler.Error(w, http.StatusBadRequest, "image is empty")
		return
	}

	res, err := c.CardService.Scan(r.Context(), userID, data, header.Filename)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, ScanStatus(res.Extraction), res)
}

func (c *CardController) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	page := handler.QueryInt(r, "page", 1)
	pageSize := handler.QueryInt(r, "page_size", 20)

	cards, pagination, err := c.CardService.ListCards(r.Context(), userID, page, pageSize, r.URL.Query().Get("q"))
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"data":       cards,
		"pagination": pagination,
	})
}

func (c *CardController) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := handler.URLID(r, "id")
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	card, err := c.CardService.GetCard(r.Context(), userID, id)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, card)
}

func (c *CardController) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := handler.URLID(r, "id")
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	var body service.CardUpdate
	if err := handler.Decode(r, &body); err != nil {
		handler.Fail(w, r, err)
		return
	}
	card, err := c.CardService.UpdateCard(r.Context(), userID, id, body)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, card)
}

func (c *CardController) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := handler.URLID(r, "id")
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	if err := c.CardService.DeleteCard(r.Context(), userID, id); err != nil {
		handler.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CardController) CardImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := handler.URLID(r, "id")
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	data, contentType, err := c.CardService.CardImage(r.Context(), userID, id)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(data)
}

func (c *CardController) SyncContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		CardIDs []uuid.UUID `json:"card_ids"`
	}
	if err := handler.Decode(r, &body); err != nil {
		handler.Fail(w, r, err)
		return
	}
	results, err := c.CardService.SyncToContacts(r.Context(), userID, body.CardIDs)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}

	synced := 0
	for _, res := range results {
		if res.Success {
			synced++
		}
	}
	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"synced":  synced,
		"failed":  len(results) - synced,
		"results": results,
	})
}

func (c *CardController) ExportCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	data, err := c.ExportService.ExportCardsXLSX(r.Context(), userID)
	if err != nil {
		handler.Fail(w, r, err)
		return
	}
	handler.Attachment(w, xlsxContentType, "cards.xlsx")
	_, _ = w.Write(data)
}
