// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/unclebandit/cardscan-backend/internal/model"
)

// RenderTemplate replaces every {{key}} in template with data[key]. The
// substitution is a single pass, so values containing tokens are not expanded
// again. Tokens with no entry in data are left as written.
func RenderTemplate(template string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// SplitName returns the text before the first space and everything after it.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// TemplateData builds the token table for one recipient.
func TemplateData(card model.CardFields, customNote, senderName string) map[string]string {
	first, last := SplitName(card.Name)
	return map[string]string{
		"name":        card.Name,
		"first_name":  first,
		"last_name":   last,
		"email":       card.Email,
		"company":     card.Company,
		"job_title":   card.JobTitle,
		"phone":       card.Phone,
		"website":     card.Website,
		"custom_note": customNote,
		"sender_name": senderName,
	}
}

// Personalize renders template for a single card. Values are inserted as-is,
// without HTML escaping.
func Personalize(template string, card model.CardFields, customNote, senderName string) string {
	return RenderTemplate(template, TemplateData(card, customNote, senderName))
}
