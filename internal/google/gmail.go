package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/gmail/v1"
	"gopkg.in/gomail.v2"
)

var reHTMLTag = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// Draft is a Gmail draft usable as a campaign template.
type Draft struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body,omitempty"`
	Snippet string `json:"snippet"`
}

type GmailClient struct {
	creds  Credentials
	logger *slog.Logger
}

func NewGmailClient(creds Credentials, logger *slog.Logger) *GmailClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailClient{creds: creds, logger: logger}
}

func (g *GmailClient) service(ctx context.Context, userID uuid.UUID) (*gmail.Service, error) {
	opts, err := g.creds.ClientOptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return svc, nil
}

// BuildMessage renders an RFC 822 message. Bodies that contain markup are
// sent as text/html, everything else as text/plain.
func BuildMessage(to, subject, body string) ([]byte, error) {
	m := gomail.NewMessage()
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if reHTMLTag.MatchString(body) {
		m.SetBody("text/html", body)
	} else {
		m.SetBody("text/plain", body)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}
	return buf.Bytes(), nil
}

// SendOneEmail sends a single message from the user's mailbox and returns
// the Gmail message id.
func (g *GmailClient) SendOneEmail(ctx context.Context, userID uuid.UUID, to, subject, body string) (string, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return "", err
	}
	raw, err := BuildMessage(to, subject, body)
	if err != nil {
		return "", err
	}

	msg, err := svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	g.logger.Debug("gmail.send.ok", "user_id", userID, "message_id", msg.Id)
	return msg.Id, nil
}

// ListDrafts returns up to limit recent drafts with their subjects.
func (g *GmailClient) ListDrafts(ctx context.Context, userID uuid.UUID, limit int64) ([]Draft, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Users.Drafts.List("me").MaxResults(limit).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list drafts: %w", err)
	}

	drafts := make([]Draft, 0, len(resp.Drafts))
	for _, d := range resp.Drafts {
		full, err := svc.Users.Drafts.Get("me", d.Id).Format("metadata").Context(ctx).Do()
		if err != nil {
			g.logger.Warn("gmail.draft.get_error", "draft_id", d.Id, "error", err)
			continue
		}
		drafts = append(drafts, toDraft(full, false))
	}
	return drafts, nil
}

// GetDraft returns one draft including its body.
func (g *GmailClient) GetDraft(ctx context.Context, userID uuid.UUID, draftID string) (*Draft, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, err := svc.Users.Drafts.Get("me", draftID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get draft: %w", err)
	}
	out := toDraft(d, true)
	return &out, nil
}

func toDraft(d *gmail.Draft, withBody bool) Draft {
	out := Draft{ID: d.Id}
	if d.Message == nil {
		return out
	}
	out.Snippet = d.Message.Snippet
	if d.Message.Payload == nil {
		return out
	}
	for _, h := range d.Message.Payload.Headers {
		if strings.EqualFold(h.Name, "Subject") {
			out.Subject = h.Value
			break
		}
	}
	if withBody {
		if body := findPart(d.Message.Payload, "text/html"); body != "" {
			out.Body = body
		} else {
			out.Body = findPart(d.Message.Payload, "text/plain")
		}
	}
	return out
}

// findPart returns the decoded body of the first part with mimeType.
func findPart(p *gmail.MessagePart, mimeType string) string {
	if p == nil {
		return ""
	}
	if p.MimeType == mimeType && p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, child := range p.Parts {
		if s := findPart(child, mimeType); s != "" {
			return s
		}
	}
	return ""
}

func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}
