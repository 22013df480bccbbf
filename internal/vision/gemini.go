package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiTransport calls the Gemini generateContent endpoint with an inline image.
type GeminiTransport struct {
	cfg    GeminiConfig
	http   *http.Client
	logger *slog.Logger
}

func NewGeminiTransport(cfg GeminiConfig, client *http.Client, logger *slog.Logger) *GeminiTransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiTransport{cfg: cfg, http: client, logger: logger}
}

func (g *GeminiTransport) Name() string { return "gemini" }

func (g *GeminiTransport) CheckKey() error {
	key := strings.TrimSpace(g.cfg.APIKey)
	if key == "" {
		return appErrors.NewExtractionError(appErrors.KindConfiguration, g.Name(),
			"GEMINI_API_KEY is not set; add it to the environment and restart the server", nil)
	}
	if !strings.HasPrefix(key, "AIza") {
		return appErrors.NewExtractionError(appErrors.KindConfiguration, g.Name(),
			"GEMINI_API_KEY looks malformed (expected a key starting with AIza); create a new key in Google AI Studio", nil)
	}
	return nil
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

func (g *GeminiTransport) Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": prompt},
				{"inline_data": map[string]any{
					"mime_type": mimeType,
					"data":      base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		"generationConfig": map[string]any{
			"temperature":     0.1,
			"maxOutputTokens": 1024,
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	raw, status, err := sendJSON(ctx, g.http, url, body, map[string]string{"x-goog-api-key": g.cfg.APIKey}, g.logger)
	if err != nil {
		if status == 0 {
			return "", networkFailure(g.Name(), err)
		}
		var ge geminiError
		_ = json.Unmarshal(raw, &ge)
		code := ge.Error.Status
		for _, d := range ge.Error.Details {
			if d.Reason != "" {
				code = d.Reason
				break
			}
		}
		return "", providerFailure(g.Name(), status, code, ge.Error.Message, err)
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", appErrors.NewExtractionError(appErrors.KindParse, g.Name(), "decode provider response", err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
