package vision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

// Extractor turns an image into an ExtractionResult. Implementations never
// return an error: every outcome is encoded in the result.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) model.ExtractionResult
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	invalidKeyMessage  = "invalid API key"
	rateLimitedMessage = "vision provider rate limit reached, please try again in a minute"
)

func succeeded(fields model.CardFields) model.ExtractionResult {
	return model.ExtractionResult{Success: true, Data: fields}
}

func failed(msg string) model.ExtractionResult {
	return model.ExtractionResult{Success: false, Error: msg}
}

func failedKind(kind appErrors.Kind, msg string) model.ExtractionResult {
	return model.ExtractionResult{Success: false, Error: msg, FailureKind: string(kind)}
}

func rateLimited(msg string) model.ExtractionResult {
	return model.ExtractionResult{Success: false, RateLimited: true, Error: msg}
}

// fallback yields the empty template so the user can type the card in by hand.
func fallback(err error) model.ExtractionResult {
	r := model.ExtractionResult{Success: true, Fallback: true}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// RetryingExtractor makes up to MaxAttempts calls. Rate limits back off
// exponentially from RateLimitBase, other transient failures wait RetryDelay.
// Exhausted transient failures produce a fallback result.
type RetryingExtractor struct {
	Transport     Transport
	MaxAttempts   int
	RateLimitBase time.Duration
	RetryDelay    time.Duration
	Sleep         Sleeper
	Logger        *slog.Logger
}

func NewRetryingExtractor(t Transport, logger *slog.Logger) *RetryingExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingExtractor{
		Transport:     t,
		MaxAttempts:   3,
		RateLimitBase: 2 * time.Second,
		RetryDelay:    2 * time.Second,
		Sleep:         sleepCtx,
		Logger:        logger,
	}
}

func (r *RetryingExtractor) Extract(ctx context.Context, image []byte, mimeType string) model.ExtractionResult {
	provider := r.Transport.Name()
	if err := r.Transport.CheckKey(); err != nil {
		r.Logger.Error("vision.extract.config_error", "provider", provider, "error", err)
		return failedKind(appErrors.KindConfiguration, err.Error())
	}

	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		text, err := r.Transport.Generate(ctx, image, mimeType, CardPrompt)
		if err == nil {
			fields, decErr := DecodeCardFields(provider, text)
			if decErr == nil {
				r.Logger.Info("vision.extract.ok", "provider", provider, "attempt", attempt)
				return succeeded(fields)
			}
			err = decErr
		}
		lastErr = err
		final := attempt == r.MaxAttempts

		var wait time.Duration
		switch appErrors.KindOf(err) {
		case appErrors.KindAuth:
			r.Logger.Error("vision.extract.auth_error", "provider", provider, "error", err)
			return failedKind(appErrors.KindAuth, invalidKeyMessage)
		case appErrors.KindConfiguration:
			return failedKind(appErrors.KindConfiguration, err.Error())
		case appErrors.KindRateLimit:
			r.Logger.Warn("vision.extract.rate_limited", "provider", provider, "attempt", attempt)
			if final {
				return rateLimited(rateLimitedMessage)
			}
			wait = r.RateLimitBase << (attempt - 1)
		default:
			r.Logger.Warn("vision.extract.retryable_error", "provider", provider, "attempt", attempt, "error", err)
			wait = r.RetryDelay
		}
		if final {
			break
		}
		if err := r.Sleep(ctx, wait); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	r.Logger.Warn("vision.extract.fallback", "provider", provider, "error", lastErr)
	return fallback(lastErr)
}

// SingleAttemptExtractor makes exactly one call. Anything other than a rate
// limit or a rejected key becomes a fallback result.
type SingleAttemptExtractor struct {
	Transport Transport
	Logger    *slog.Logger
}

func NewSingleAttemptExtractor(t Transport, logger *slog.Logger) *SingleAttemptExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SingleAttemptExtractor{Transport: t, Logger: logger}
}

func (s *SingleAttemptExtractor) Extract(ctx context.Context, image []byte, mimeType string) model.ExtractionResult {
	provider := s.Transport.Name()
	if err := s.Transport.CheckKey(); err != nil {
		s.Logger.Error("vision.extract.config_error", "provider", provider, "error", err)
		return failedKind(appErrors.KindConfiguration, err.Error())
	}

	text, err := s.Transport.Generate(ctx, image, mimeType, CardPrompt)
	if err == nil {
		fields, decErr := DecodeCardFields(provider, text)
		if decErr == nil {
			s.Logger.Info("vision.extract.ok", "provider", provider)
			return succeeded(fields)
		}
		err = decErr
	}

	switch appErrors.KindOf(err) {
	case appErrors.KindRateLimit:
		s.Logger.Warn("vision.extract.rate_limited", "provider", provider, "error", err)
		return rateLimited(rateLimitedMessage)
	case appErrors.KindAuth:
		s.Logger.Error("vision.extract.auth_error", "provider", provider, "error", err)
		return failedKind(appErrors.KindAuth, invalidKeyMessage)
	case appErrors.KindConfiguration:
		return failedKind(appErrors.KindConfiguration, err.Error())
	}
	s.Logger.Warn("vision.extract.fallback", "provider", provider, "error", err)
	return fallback(err)
}
