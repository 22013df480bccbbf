package vision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

type recordingExtractor struct {
	mime  string
	calls int
}

func (r *recordingExtractor) Extract(ctx context.Context, image []byte, mimeType string) model.ExtractionResult {
	r.calls++
	r.mime = mimeType
	return model.ExtractionResult{Success: true, Data: model.CardFields{Name: "Grace"}}
}

func TestOrchestrator_ExtractCardInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.bin")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, 0o600); err != nil {
		t.Fatal(err)
	}

	rec := &recordingExtractor{}
	o := NewOrchestratorWith(rec, "fake", quietLogger())

	res := o.ExtractCardInfo(context.Background(), path)
	if !res.Success || res.Data.Name != "Grace" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if rec.mime != MIMEPNG {
		t.Errorf("mime = %q, want png", rec.mime)
	}
}

func TestOrchestrator_MissingFile(t *testing.T) {
	rec := &recordingExtractor{}
	o := NewOrchestratorWith(rec, "fake", quietLogger())

	res := o.ExtractCardInfo(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	if res.Success || res.Error == "" {
		t.Fatalf("expected failure, got %+v", res)
	}
	if rec.calls != 0 {
		t.Errorf("extractor should not be called")
	}
}

func TestOrchestrator_EmptyImage(t *testing.T) {
	rec := &recordingExtractor{}
	o := NewOrchestratorWith(rec, "fake", quietLogger())

	if res := o.ExtractImage(context.Background(), nil, "x.jpg"); res.Success {
		t.Fatalf("expected failure, got %+v", res)
	}
}

func TestNewOrchestrator_Selection(t *testing.T) {
	cfg := config.Default().Vision
	cfg.Provider = config.ProviderOpenAI
	cfg.Policy = config.PolicySingle

	o, err := NewOrchestrator(cfg, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := o.extractor.(*SingleAttemptExtractor); !ok {
		t.Errorf("extractor = %T, want single attempt", o.extractor)
	}
	if o.provider != "openai" {
		t.Errorf("provider = %q", o.provider)
	}

	cfg.Provider = "claude"
	if _, err := NewOrchestrator(cfg, quietLogger()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewOrchestrator_MissingKeyIsNotStartupError(t *testing.T) {
	cfg := config.Default().Vision
	cfg.GeminiAPIKey = ""

	o, err := NewOrchestrator(cfg, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := o.ExtractImage(context.Background(), []byte{0xFF, 0xD8, 0xFF}, "a.jpg")
	if res.Success || res.Fallback || res.Error == "" {
		t.Fatalf("expected configuration failure, got %+v", res)
	}
}
