package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAITransport calls chat/completions with the image as a data URL.
type OpenAITransport struct {
	cfg    OpenAIConfig
	http   *http.Client
	logger *slog.Logger
}

func NewOpenAITransport(cfg OpenAIConfig, client *http.Client, logger *slog.Logger) *OpenAITransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAITransport{cfg: cfg, http: client, logger: logger}
}

func (o *OpenAITransport) Name() string { return "openai" }

func (o *OpenAITransport) CheckKey() error {
	key := strings.TrimSpace(o.cfg.APIKey)
	if key == "" {
		return appErrors.NewExtractionError(appErrors.KindConfiguration, o.Name(),
			"OPENAI_API_KEY is not set; add it to the environment and restart the server", nil)
	}
	if !strings.HasPrefix(key, "sk-") {
		return appErrors.NewExtractionError(appErrors.KindConfiguration, o.Name(),
			"OPENAI_API_KEY looks malformed (expected a key starting with sk-); check the key in the OpenAI dashboard", nil)
	}
	return nil
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (o *OpenAITransport) Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	body := map[string]any{
		"model":       o.cfg.Model,
		"temperature": 0,
		"max_tokens":  800,
		"messages": []map[string]any{{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			},
		}},
	}

	endpoint := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + o.cfg.APIKey}
	raw, status, err := sendJSON(ctx, o.http, endpoint, body, headers, o.logger)
	if err != nil {
		if status == 0 {
			return "", networkFailure(o.Name(), err)
		}
		var oe openAIError
		_ = json.Unmarshal(raw, &oe)
		code := oe.Error.Code
		if code == "" {
			code = oe.Error.Type
		}
		return "", providerFailure(o.Name(), status, code, oe.Error.Message, err)
	}

	var cc openAIResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", appErrors.NewExtractionError(appErrors.KindParse, o.Name(), "decode provider response", err)
	}
	if len(cc.Choices) == 0 {
		return "", nil
	}
	return cc.Choices[0].Message.Content, nil
}
