// Package normalize cleans contact fields read off a business card.
package normalize

import (
	"regexp"
	"strings"

	"github.com/unclebandit/cardscan-backend/internal/model"
)

var (
	reEmail      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// placeholders the model uses for "nothing here"
var emptyMarkers = map[string]struct{}{
	"null":      {},
	"undefined": {},
	"N/A":       {},
	"n/a":       {},
}

// String trims s and maps placeholder values to "".
func String(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := emptyMarkers[s]; ok {
		return ""
	}
	return s
}

// Email lower-cases and validates. Invalid input yields "".
func Email(s string) string {
	s = strings.ToLower(String(s))
	if s == "" || !reEmail.MatchString(s) {
		return ""
	}
	return s
}

// Phone collapses whitespace runs. Digits are left as written.
func Phone(s string) string {
	return reWhitespace.ReplaceAllString(String(s), " ")
}

// Website lower-cases and adds an https scheme when none is present.
func Website(s string) string {
	s = strings.ToLower(String(s))
	if s == "" || strings.HasPrefix(s, "http") {
		return s
	}
	return "https://" + strings.TrimPrefix(s, "www.")
}

// Fields applies the per-field rules to every card field.
func Fields(f model.CardFields) model.CardFields {
	return model.CardFields{
		Name:     String(f.Name),
		Email:    Email(f.Email),
		Phone:    Phone(f.Phone),
		Company:  String(f.Company),
		JobTitle: String(f.JobTitle),
		Address:  String(f.Address),
		Website:  Website(f.Website),
	}
}
