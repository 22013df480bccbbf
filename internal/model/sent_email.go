// internal/model/sent_email.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	SentEmailPending = "pending"
	SentEmailSent    = "sent"
	SentEmailFailed  = "failed"
)

// SentEmail records one send attempt for one recipient of a campaign. Rows are
// written once and never updated.
type SentEmail struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CampaignID     uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	CardID         *uuid.UUID `db:"card_id" json:"card_id,omitempty"`
	RecipientEmail string     `db:"recipient_email" json:"recipient_email"`
	RecipientName  string     `db:"recipient_name" json:"recipient_name"`
	Subject        string     `db:"subject" json:"subject"`
	Status         string     `db:"status" json:"status"`
	CustomNote     string     `db:"custom_note" json:"custom_note"`
	MessageID      *string    `db:"message_id" json:"message_id,omitempty"`
	ErrorMessage   *string    `db:"error_message" json:"error_message,omitempty"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
