// internal/model/card.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CardFields are the seven contact fields extracted from a business card.
// Every key is always present when serialised.
type CardFields struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	JobTitle string `json:"job_title"`
	Address  string `json:"address"`
	Website  string `json:"website"`
}

type Card struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	CardFields
	ImageRef        string     `db:"image_ref" json:"image_ref"`
	Synced          bool       `db:"synced" json:"synced"`
	GoogleContactID *string    `db:"google_contact_id" json:"google_contact_id,omitempty"`
	Notes           string     `db:"notes" json:"notes"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ExtractionResult is the uniform outcome of a scan. Fallback implies Success
// and all-empty Data.
type ExtractionResult struct {
	Success     bool       `json:"success"`
	Data        CardFields `json:"data"`
	Fallback    bool       `json:"fallback"`
	RateLimited bool       `json:"rateLimited"`
	Error       string     `json:"error,omitempty"`
	// FailureKind is "auth" or "configuration" for failures the caller
	// cannot fix by retrying. Not serialised.
	FailureKind string `json:"-"`
}
