package appErrors

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the vision pipeline.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindRateLimit     Kind = "rate_limit"
	KindAuth          Kind = "auth"
	KindParse         Kind = "parse"
	KindTransient     Kind = "transient"
)

// ExtractionError is returned by vision transports and the decode step.
type ExtractionError struct {
	Kind     Kind
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func NewExtractionError(kind Kind, provider, message string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Provider: provider, Message: message, Err: err}
}

// KindOf returns the extraction kind of err. Errors that are not
// ExtractionErrors are transient.
func KindOf(err error) Kind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindTransient
}

// RecipientSendError is one recipient's failed send inside a campaign.
type RecipientSendError struct {
	Email string
	Err   error
}

func (e *RecipientSendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Email, e.Err)
}

func (e *RecipientSendError) Unwrap() error {
	return e.Err
}
