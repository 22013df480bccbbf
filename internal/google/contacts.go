package google

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/api/people/v1"

	"github.com/unclebandit/cardscan-backend/internal/model"
)

type ContactsClient struct {
	creds  Credentials
	logger *slog.Logger
}

func NewContactsClient(creds Credentials, logger *slog.Logger) *ContactsClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactsClient{creds: creds, logger: logger}
}

// CreateContact adds the card to the user's Google Contacts and returns the
// new contact's resource name.
func (c *ContactsClient) CreateContact(ctx context.Context, userID uuid.UUID, card *model.Card) (string, error) {
	opts, err := c.creds.ClientOptions(ctx, userID)
	if err != nil {
		return "", err
	}
	svc, err := people.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("people service: %w", err)
	}

	created, err := svc.People.CreateContact(PersonFromCard(card)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	return created.ResourceName, nil
}

// PersonFromCard maps the non-empty card fields onto a People API person.
func PersonFromCard(card *model.Card) *people.Person {
	p := &people.Person{}
	if card.Name != "" {
		p.Names = []*people.Name{{UnstructuredName: card.Name}}
	}
	if card.Email != "" {
		p.EmailAddresses = []*people.EmailAddress{{Value: card.Email, Type: "work"}}
	}
	if card.Phone != "" {
		p.PhoneNumbers = []*people.PhoneNumber{{Value: card.Phone, Type: "work"}}
	}
	if card.Company != "" || card.JobTitle != "" {
		p.Organizations = []*people.Organization{{Name: card.Company, Title: card.JobTitle}}
	}
	if card.Address != "" {
		p.Addresses = []*people.Address{{FormattedValue: card.Address, Type: "work"}}
	}
	if card.Website != "" {
		p.Urls = []*people.Url{{Value: card.Website, Type: "work"}}
	}
	if card.Notes != "" {
		p.Biographies = []*people.Biography{{Value: card.Notes, ContentType: "TEXT_PLAIN"}}
	}
	return p
}
