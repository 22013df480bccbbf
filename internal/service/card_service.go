package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/normalize"
	"github.com/unclebandit/cardscan-backend/internal/repository"
	"github.com/unclebandit/cardscan-backend/internal/storage"
	"github.com/unclebandit/cardscan-backend/internal/vision"
)

// CardExtractor is the scan pipeline as seen by the card service.
type CardExtractor interface {
	ExtractImage(ctx context.Context, data []byte, filename string) model.ExtractionResult
}

// ContactCreator pushes a card to the user's address book.
type ContactCreator interface {
	CreateContact(ctx context.Context, userID uuid.UUID, card *model.Card) (string, error)
}

type CardService struct {
	CardRepo   repository.CardRepositoryInterface
	Extractor  CardExtractor
	Images     storage.ImageStore
	Contacts   ContactCreator
	SyncPacing time.Duration
	Sleep      func(time.Duration)
	Logger     *slog.Logger
}

func NewCardService(
	cards repository.CardRepositoryInterface,
	extractor CardExtractor,
	images storage.ImageStore,
	contacts ContactCreator,
	syncPacing time.Duration,
	logger *slog.Logger,
) *CardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardService{
		CardRepo:   cards,
		Extractor:  extractor,
		Images:     images,
		Contacts:   contacts,
		SyncPacing: syncPacing,
		Sleep:      time.Sleep,
		Logger:     logger,
	}
}

// ScanResult pairs the extraction outcome with the stored card. Card is nil
// when the extraction failed outright.
type ScanResult struct {
	Card       *model.Card            `json:"card,omitempty"`
	Extraction model.ExtractionResult `json:"extraction"`
}

var imageExt = map[string]string{
	vision.MIMEJPEG: ".jpg",
	vision.MIMEPNG:  ".png",
	vision.MIMEWebP: ".webp",
	vision.MIMEGIF:  ".gif",
	vision.MIMEBMP:  ".bmp",
}

// Scan extracts the card in image and, on success or fallback, stores the
// image and a new card. A fallback yields an empty card for manual entry.
func (s *CardService) Scan(ctx context.Context, userID uuid.UUID, image []byte, filename string) (*ScanResult, error) {
	res := s.Extractor.ExtractImage(ctx, image, filename)
	if !res.Success {
		return &ScanResult{Extraction: res}, nil
	}

	card := &model.Card{
		ID:         uuid.New(),
		UserID:     userID,
		CardFields: res.Data,
	}

	mimeType := vision.DetectMIME(image, filename)
	key := fmt.Sprintf("%s/%s%s", userID, card.ID, imageExt[mimeType])
	if err := s.Images.Put(ctx, key, image, mimeType); err != nil {
		s.Logger.Warn("cards.scan.image_store_error", "card_id", card.ID, "error", err)
	} else {
		card.ImageRef = key
	}

	if err := s.CardRepo.Create(ctx, card); err != nil {
		if card.ImageRef != "" {
			_ = s.Images.Delete(context.WithoutCancel(ctx), card.ImageRef)
		}
		return nil, fmt.Errorf("create card: %w", err)
	}

	s.Logger.Info("cards.scan.ok", "card_id", card.ID, "fallback", res.Fallback)
	return &ScanResult{Card: card, Extraction: res}, nil
}

// ListCards fetches cards with pagination
func (s *CardService) ListCards(ctx context.Context, userID uuid.UUID, page, pageSize int, search string) ([]*model.Card, map[string]int, error) {
	page, pageSize, offset := paginate(page, pageSize)

	cards, total, err := s.CardRepo.List(ctx, userID, offset, pageSize, strings.TrimSpace(search))
	if err != nil {
		return nil, nil, err
	}
	return cards, pagination(page, pageSize, total), nil
}

func (s *CardService) GetCard(ctx context.Context, userID, id uuid.UUID) (*model.Card, error) {
	return s.CardRepo.GetByID(ctx, userID, id)
}

// CardUpdate replaces the editable fields of a card.
type CardUpdate struct {
	model.CardFields
	Notes string `json:"notes"`
}

// UpdateCard applies a manual edit. Fields go through the same cleaning as
// extracted values.
func (s *CardService) UpdateCard(ctx context.Context, userID, id uuid.UUID, in CardUpdate) (*model.Card, error) {
	card, err := s.CardRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	card.CardFields = normalize.Fields(in.CardFields)
	card.Notes = strings.TrimSpace(in.Notes)

	if err := s.CardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard removes the card and its image. Sent email rows keep their
// history with a null card reference.
func (s *CardService) DeleteCard(ctx context.Context, userID, id uuid.UUID) error {
	card, err := s.CardRepo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.CardRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if card.ImageRef != "" {
		if err := s.Images.Delete(ctx, card.ImageRef); err != nil {
			s.Logger.Warn("cards.delete.image_error", "card_id", id, "error", err)
		}
	}
	return nil
}

// CardImage returns the stored scan of a card.
func (s *CardService) CardImage(ctx context.Context, userID, id uuid.UUID) ([]byte, string, error) {
	card, err := s.CardRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	if card.ImageRef == "" {
		return nil, "", appErrors.NewCardNotFound(id)
	}
	data, ct, err := s.Images.Get(ctx, card.ImageRef)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", appErrors.NewCardNotFound(id)
	}
	return data, ct, err
}

// SyncResult is the outcome of pushing one card to Google Contacts.
type SyncResult struct {
	CardID    uuid.UUID `json:"cardId"`
	Success   bool      `json:"success"`
	Skipped   bool      `json:"skipped,omitempty"`
	ContactID string    `json:"contactId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SyncToContacts creates a contact for every requested card that is not yet
// synced. Calls are sequential with SyncPacing between them; one failure does
// not stop the rest.
func (s *CardService) SyncToContacts(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) ([]SyncResult, error) {
	if len(cardIDs) == 0 {
		return nil, appErrors.Validation("card_ids must not be empty")
	}
	cards, err := s.CardRepo.GetByIDs(ctx, userID, cardIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]*model.Card, len(cards))
	for _, c := range cards {
		found[c.ID] = c
	}

	ctx = context.WithoutCancel(ctx)
	results := make([]SyncResult, 0, len(cardIDs))
	for _, id := range cardIDs {
		card, ok := found[id]
		switch {
		case !ok:
			results = append(results, SyncResult{CardID: id, Error: appErrors.NewCardNotFound(id).Error()})
			continue
		case card.Synced:
			contactID := ""
			if card.GoogleContactID != nil {
				contactID = *card.GoogleContactID
			}
			results = append(results, SyncResult{CardID: id, Success: true, Skipped: true, ContactID: contactID})
			continue
		}

		r := SyncResult{CardID: id}
		contactID, err := s.Contacts.CreateContact(ctx, userID, card)
		if err != nil {
			r.Error = err.Error()
			s.Logger.Warn("contacts.sync.error", "card_id", id, "error", err)
		} else if err := s.CardRepo.MarkSynced(ctx, id, contactID); err != nil {
			r.Error = err.Error()
			s.Logger.Error("contacts.sync.mark_error", "card_id", id, "error", err)
		} else {
			r.Success = true
			r.ContactID = contactID
			s.Logger.Info("contacts.sync.ok", "card_id", id, "contact_id", contactID)
		}
		results = append(results, r)
		s.Sleep(s.SyncPacing)
	}
	return results, nil
}

func paginate(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func pagination(page, pageSize, total int) map[string]int {
	return map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
}
