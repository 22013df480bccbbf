// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConnected means the user has no stored Google credentials.
	ErrNotConnected = errors.New("google account not connected")
)

// ErrCampaignNotFound is returned when a campaign does not exist for the user.
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

func NewCampaignNotFound(id uuid.UUID) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrCardNotFound is returned when a card does not exist for the user.
type ErrCardNotFound struct {
	CardID uuid.UUID
}

func (e *ErrCardNotFound) Error() string {
	return fmt.Sprintf("card with ID %s not found", e.CardID)
}

func NewCardNotFound(id uuid.UUID) error {
	return &ErrCardNotFound{CardID: id}
}

// IsNotFound reports whether err is any of the not-found errors.
func IsNotFound(err error) bool {
	var campaignErr *ErrCampaignNotFound
	var cardErr *ErrCardNotFound
	return errors.As(err, &campaignErr) || errors.As(err, &cardErr)
}

// Validation wraps ErrValidation with a message for the caller.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
