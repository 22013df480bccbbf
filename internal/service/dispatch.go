package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

// EmailSender sends one message on behalf of a user and returns the provider
// message id.
type EmailSender interface {
	SendOneEmail(ctx context.Context, userID uuid.UUID, to, subject, body string) (string, error)
}

// RecipientResult is the outcome for one recipient, in input order.
type RecipientResult struct {
	RecipientID uuid.UUID `json:"recipientId"`
	Email       string    `json:"email"`
	Name        string    `json:"-"`
	Subject     string    `json:"-"`
	CustomNote  string    `json:"-"`
	Success     bool      `json:"success"`
	MessageID   string    `json:"messageId,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type DispatchResult struct {
	SentCount       int               `json:"sentCount"`
	FailedCount     int               `json:"failedCount"`
	TotalRecipients int               `json:"totalRecipients"`
	Results         []RecipientResult `json:"perRecipientResults"`
}

// Dispatcher sends a campaign one recipient at a time, sleeping Pacing after
// every send whether it succeeded or not.
type Dispatcher struct {
	Sender EmailSender
	Pacing time.Duration
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

func NewDispatcher(sender EmailSender, pacing time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{Sender: sender, Pacing: pacing, Sleep: time.Sleep, Logger: logger}
}

// SendCampaign personalises and sends to every recipient in order. A failed
// send is recorded and never stops the batch. onResult, when set, is called
// once per recipient as soon as its outcome is known.
//
// The run is not cancellable: ctx values are kept but its cancellation is
// ignored once dispatch starts.
func (d *Dispatcher) SendCampaign(
	ctx context.Context,
	userID uuid.UUID,
	recipients []model.Recipient,
	subjectTpl, bodyTpl, senderName string,
	onResult func(RecipientResult),
) DispatchResult {
	ctx = context.WithoutCancel(ctx)
	out := DispatchResult{
		TotalRecipients: len(recipients),
		Results:         make([]RecipientResult, 0, len(recipients)),
	}

	for i, r := range recipients {
		subject := Personalize(subjectTpl, r.Card, r.CustomNote, senderName)
		body := Personalize(bodyTpl, r.Card, r.CustomNote, senderName)

		res := RecipientResult{
			RecipientID: r.ID,
			Email:       r.Email,
			Name:        r.Name,
			Subject:     subject,
			CustomNote:  r.CustomNote,
		}
		msgID, err := d.send(ctx, userID, r.Email, subject, body)
		if err != nil {
			res.Error = err.Error()
			d.Logger.Warn("campaign.dispatch.recipient_failed",
				"index", i,
				"recipient_id", r.ID,
				"error", err,
			)
		} else {
			res.Success = true
			res.MessageID = msgID
			out.SentCount++
			d.Logger.Info("campaign.dispatch.recipient_sent", "index", i, "recipient_id", r.ID, "message_id", msgID)
		}

		out.Results = append(out.Results, res)
		if onResult != nil {
			onResult(res)
		}
		d.Sleep(d.Pacing)
	}

	out.FailedCount = out.TotalRecipients - out.SentCount
	d.Logger.Info("campaign.dispatch.done",
		"total", out.TotalRecipients,
		"sent", out.SentCount,
		"failed", out.FailedCount,
	)
	return out
}

// send calls the sender and turns a panic into a recipient error.
func (d *Dispatcher) send(ctx context.Context, userID uuid.UUID, to, subject, body string) (msgID string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &appErrors.RecipientSendError{Email: to, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	msgID, err = d.Sender.SendOneEmail(ctx, userID, to, subject, body)
	if err != nil {
		return "", &appErrors.RecipientSendError{Email: to, Err: err}
	}
	return msgID, nil
}
