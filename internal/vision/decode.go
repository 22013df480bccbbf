package vision

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/normalize"
)

var (
	reFence  = regexp.MustCompile("```(?:json|JSON)?")
	reObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// cardSchema accepts any object; known keys must be scalar. Extra keys are
// allowed here and dropped when mapping to CardFields.
var cardSchema = jsonschema.MustCompileString("card.json", `{
  "type": "object",
  "properties": {
    "name":      {"type": ["string", "number", "null"]},
    "email":     {"type": ["string", "null"]},
    "phone":     {"type": ["string", "number", "null"]},
    "company":   {"type": ["string", "number", "null"]},
    "job_title": {"type": ["string", "null"]},
    "address":   {"type": ["string", "number", "null"]},
    "website":   {"type": ["string", "null"]}
  }
}`)

var cardKeys = []string{"name", "email", "phone", "company", "job_title", "address", "website"}

// extractObject strips markdown fences and returns the span from the first
// '{' to the last '}'.
func extractObject(text string) (string, bool) {
	text = strings.TrimSpace(reFence.ReplaceAllString(text, ""))
	span := reObject.FindString(text)
	return span, span != ""
}

// DecodeCardFields turns free-form provider text into normalised card fields.
// Every failure is a parse error.
func DecodeCardFields(provider, text string) (model.CardFields, error) {
	if strings.TrimSpace(text) == "" {
		return model.CardFields{}, appErrors.NewExtractionError(appErrors.KindParse, provider, "empty response from provider", nil)
	}

	span, ok := extractObject(text)
	if !ok {
		return model.CardFields{}, appErrors.NewExtractionError(appErrors.KindParse, provider, "no JSON object in response", nil)
	}

	var doc any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return model.CardFields{}, appErrors.NewExtractionError(appErrors.KindParse, provider, "malformed JSON in response", err)
	}
	if err := cardSchema.Validate(doc); err != nil {
		return model.CardFields{}, appErrors.NewExtractionError(appErrors.KindParse, provider, "response does not match card schema", err)
	}

	m := doc.(map[string]any)
	values := make(map[string]string, len(cardKeys))
	for _, k := range cardKeys {
		values[k] = scalarString(m[k])
	}

	return normalize.Fields(model.CardFields{
		Name:     values["name"],
		Email:    values["email"],
		Phone:    values["phone"],
		Company:  values["company"],
		JobTitle: values["job_title"],
		Address:  values["address"],
		Website:  values["website"],
	}), nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
