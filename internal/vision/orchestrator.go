package vision

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

// Orchestrator is the single entry point of the scan pipeline. The provider
// and policy are fixed at construction.
type Orchestrator struct {
	extractor Extractor
	provider  string
	logger    *slog.Logger
}

// NewOrchestrator builds the configured transport and wraps it in the
// configured policy.
func NewOrchestrator(cfg config.VisionConfig, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var t Transport
	switch cfg.Provider {
	case config.ProviderGemini:
		t = NewGeminiTransport(GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, BaseURL: cfg.BaseURL}, client, logger)
	case config.ProviderOpenAI:
		t = NewOpenAITransport(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, BaseURL: cfg.BaseURL}, client, logger)
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}

	var ex Extractor
	switch cfg.Policy {
	case config.PolicyRetrying, "":
		ex = NewRetryingExtractor(t, logger)
	case config.PolicySingle:
		ex = NewSingleAttemptExtractor(t, logger)
	default:
		return nil, fmt.Errorf("unknown vision policy %q", cfg.Policy)
	}

	logger.Info("vision.orchestrator.ready", "provider", t.Name(), "policy", cfg.Policy)
	return &Orchestrator{extractor: ex, provider: t.Name(), logger: logger}, nil
}

// NewOrchestratorWith wraps an existing extractor.
func NewOrchestratorWith(ex Extractor, provider string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{extractor: ex, provider: provider, logger: logger}
}

// ExtractImage sniffs the MIME type and runs the extractor.
func (o *Orchestrator) ExtractImage(ctx context.Context, data []byte, filename string) model.ExtractionResult {
	if len(data) == 0 {
		return failed("image is empty")
	}
	mimeType := DetectMIME(data, filename)
	start := time.Now()

	o.logger.Info("vision.extract.start",
		"provider", o.provider,
		"filename", filename,
		"mime", mimeType,
		"bytes", len(data),
	)
	res := o.extractor.Extract(ctx, data, mimeType)
	o.logger.Info("vision.extract.done",
		"provider", o.provider,
		"success", res.Success,
		"fallback", res.Fallback,
		"rate_limited", res.RateLimited,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// ExtractCardInfo reads an image from disk and extracts its card fields.
func (o *Orchestrator) ExtractCardInfo(ctx context.Context, imagePath string) model.ExtractionResult {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		o.logger.Error("vision.extract.read_error", "path", imagePath, "error", err)
		return failed(fmt.Sprintf("read image: %v", err))
	}
	return o.ExtractImage(ctx, data, imagePath)
}
