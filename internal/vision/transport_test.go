package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
)

func TestGemini_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1beta/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "AIzaTEST" {
			t.Errorf("missing api key header")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"name\":"},{"text":"\"Jane\"}"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiTransport(GeminiConfig{APIKey: "AIzaTEST", Model: "gemini-test", BaseURL: srv.URL}, srv.Client(), quietLogger())
	text, err := g.Generate(context.Background(), []byte("img"), MIMEJPEG, CardPrompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"name":"Jane"}` {
		t.Errorf("text = %q", text)
	}
}

func TestGemini_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   appErrors.Kind
	}{
		{"429", http.StatusTooManyRequests, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`, appErrors.KindRateLimit},
		{"quota in 403", http.StatusForbidden, `{"error":{"code":403,"status":"RESOURCE_EXHAUSTED"}}`, appErrors.KindRateLimit},
		{"bad key in 400", http.StatusBadRequest, `{"error":{"code":400,"status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`, appErrors.KindAuth},
		{"401", http.StatusUnauthorized, `{}`, appErrors.KindAuth},
		{"500", http.StatusInternalServerError, `oops`, appErrors.KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGeminiTransport(GeminiConfig{APIKey: "AIzaTEST", BaseURL: srv.URL}, srv.Client(), quietLogger())
			_, err := g.Generate(context.Background(), []byte("img"), MIMEJPEG, CardPrompt)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := appErrors.KindOf(err); got != tt.want {
				t.Errorf("kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGemini_CheckKey(t *testing.T) {
	for key, ok := range map[string]bool{"": false, "sk-abc": false, "AIzaXYZ": true} {
		g := NewGeminiTransport(GeminiConfig{APIKey: key}, nil, quietLogger())
		err := g.CheckKey()
		if (err == nil) != ok {
			t.Errorf("CheckKey(%q) err = %v", key, err)
		}
		if err != nil && appErrors.KindOf(err) != appErrors.KindConfiguration {
			t.Errorf("CheckKey(%q) kind = %s", key, appErrors.KindOf(err))
		}
	}
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Type     string `json:"type"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		url := body.Messages[0].Content[1].ImageURL.URL
		if !strings.HasPrefix(url, "data:image/png;base64,") {
			t.Errorf("image url = %q", url)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"email\":\"a@b.co\"}"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAITransport(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, srv.Client(), quietLogger())
	text, err := o.Generate(context.Background(), []byte("img"), MIMEPNG, CardPrompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"email":"a@b.co"}` {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAI_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   appErrors.Kind
	}{
		{http.StatusTooManyRequests, `{"error":{"type":"requests","code":"rate_limit_exceeded"}}`, appErrors.KindRateLimit},
		{http.StatusUnauthorized, `{"error":{"code":"invalid_api_key"}}`, appErrors.KindAuth},
		{http.StatusBadGateway, ``, appErrors.KindTransient},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))

		o := NewOpenAITransport(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, srv.Client(), quietLogger())
		_, err := o.Generate(context.Background(), []byte("img"), MIMEJPEG, CardPrompt)
		if got := appErrors.KindOf(err); err == nil || got != tt.want {
			t.Errorf("status %d: kind = %s err = %v, want %s", tt.status, got, err, tt.want)
		}
		srv.Close()
	}
}
