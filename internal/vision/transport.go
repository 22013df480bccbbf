package vision

import (
	"context"
	"errors"
	"net"
	"net/http"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
)

// Transport performs one call to a vision provider and returns the model's
// text. Failures are *appErrors.ExtractionError values classified by kind.
type Transport interface {
	Name() string
	// CheckKey validates the configured credential without a network call.
	CheckKey() error
	Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// providerFailure classifies an HTTP-level failure of a provider call.
func providerFailure(provider string, status int, code, message string, err error) error {
	kind := appErrors.KindTransient
	switch {
	case status == http.StatusTooManyRequests || rateLimitCodes[code]:
		kind = appErrors.KindRateLimit
	case status == http.StatusUnauthorized || authCodes[code]:
		kind = appErrors.KindAuth
	}
	if message == "" && err != nil {
		message = err.Error()
		err = nil
	}
	return &appErrors.ExtractionError{Kind: kind, Provider: provider, Status: status, Message: message, Err: err}
}

var rateLimitCodes = map[string]bool{
	"RESOURCE_EXHAUSTED":  true,
	"rate_limit_exceeded": true,
	"insufficient_quota":  true,
}

var authCodes = map[string]bool{
	"API_KEY_INVALID": true,
	"UNAUTHENTICATED": true,
	"invalid_api_key": true,
}

// networkFailure wraps errors from the HTTP client itself (DNS, timeouts).
func networkFailure(provider string, err error) error {
	msg := "request failed"
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		msg = "request timed out"
	}
	return appErrors.NewExtractionError(appErrors.KindTransient, provider, msg, err)
}
