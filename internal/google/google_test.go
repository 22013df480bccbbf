package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/unclebandit/cardscan-backend/internal/model"
)

type fakeCreds struct {
	srv *httptest.Server
}

func (f fakeCreds) ClientOptions(ctx context.Context, userID uuid.UUID) ([]option.ClientOption, error) {
	return []option.ClientOption{
		option.WithHTTPClient(f.srv.Client()),
		option.WithEndpoint(f.srv.URL + "/"),
	}, nil
}

func TestBuildMessage(t *testing.T) {
	raw, err := BuildMessage("jane@example.com", "Hello Jane", "Plain body")
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	msg := string(raw)
	for _, want := range []string{"To: jane@example.com", "Subject: Hello Jane", "text/plain"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	raw, _ = BuildMessage("jane@example.com", "Hi", "<p>Hi <b>Jane</b></p>")
	if !strings.Contains(string(raw), "text/html") {
		t.Errorf("expected html content type:\n%s", raw)
	}
}

func TestGmailClient_SendOneEmail(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/users/me/messages/send") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Raw string `json:"raw"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRaw = body.Raw
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-123","threadId":"t-1"}`))
	}))
	defer srv.Close()

	g := NewGmailClient(fakeCreds{srv: srv}, nil)
	id, err := g.SendOneEmail(context.Background(), uuid.New(), "bob@example.com", "Hi Bob", "Body")
	if err != nil {
		t.Fatalf("SendOneEmail: %v", err)
	}
	if id != "msg-123" {
		t.Errorf("id = %q", id)
	}
	decoded, err := base64.URLEncoding.DecodeString(gotRaw)
	if err != nil {
		t.Fatalf("raw is not base64url: %v", err)
	}
	if !strings.Contains(string(decoded), "To: bob@example.com") {
		t.Errorf("unexpected raw message:\n%s", decoded)
	}
}

func TestGmailClient_SendOneEmailError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid To header"}}`))
	}))
	defer srv.Close()

	g := NewGmailClient(fakeCreds{srv: srv}, nil)
	if _, err := g.SendOneEmail(context.Background(), uuid.New(), "bad", "s", "b"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGmailClient_GetDraft(t *testing.T) {
	html := base64.URLEncoding.EncodeToString([]byte("<p>Hi {{first_name}}</p>"))
	plain := base64.URLEncoding.EncodeToString([]byte("Hi {{first_name}}"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/drafts/d-1") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"d-1","message":{"snippet":"Hi","payload":{
			"mimeType":"multipart/alternative",
			"headers":[{"name":"Subject","value":"Meeting {{company}}"}],
			"parts":[
				{"mimeType":"text/plain","body":{"data":"` + plain + `"}},
				{"mimeType":"text/html","body":{"data":"` + html + `"}}
			]}}}`))
	}))
	defer srv.Close()

	g := NewGmailClient(fakeCreds{srv: srv}, nil)
	d, err := g.GetDraft(context.Background(), uuid.New(), "d-1")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if d.Subject != "Meeting {{company}}" {
		t.Errorf("subject = %q", d.Subject)
	}
	if d.Body != "<p>Hi {{first_name}}</p>" {
		t.Errorf("body = %q", d.Body)
	}
}

func TestContactsClient_CreateContact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "people:createContact") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		if _, ok := p["emailAddresses"]; !ok {
			t.Errorf("email missing from request: %v", p)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resourceName":"people/c42"}`))
	}))
	defer srv.Close()

	c := NewContactsClient(fakeCreds{srv: srv}, nil)
	card := &model.Card{CardFields: model.CardFields{Name: "Jane Doe", Email: "jane@example.com"}}
	id, err := c.CreateContact(context.Background(), uuid.New(), card)
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if id != "people/c42" {
		t.Errorf("resource name = %q", id)
	}
}

func TestPersonFromCard_SkipsEmptyFields(t *testing.T) {
	p := PersonFromCard(&model.Card{CardFields: model.CardFields{Name: "Solo"}})
	if len(p.Names) != 1 || p.EmailAddresses != nil || p.PhoneNumbers != nil || p.Organizations != nil {
		t.Errorf("unexpected person: %+v", p)
	}
}
