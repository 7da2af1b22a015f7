package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

var (
	ErrNoJSONObject  = fmt.Errorf("%w: no JSON object found", errs.ErrParsing)
	ErrMissingFields = fmt.Errorf("%w: missing subject or html", errs.ErrParsing)

	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ParseModelResponse extracts a GeneratedEmail from raw model output.
//
// The object is taken from the first "{" to the last "}" so that prose or
// code fences around it are ignored. The scan is not string-aware: a "}"
// inside a string value after the real object still widens the span.
func ParseModelResponse(raw string) (GeneratedEmail, error) {
	trimmed := strings.TrimSpace(raw)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < 0 || end < start {
		return GeneratedEmail{}, ErrNoJSONObject
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &fields); err != nil {
		return GeneratedEmail{}, fmt.Errorf("%w: %v", errs.ErrParsing, err)
	}

	subject := stringField(fields, "subject")
	html := stringField(fields, "html")
	if subject == "" || html == "" {
		return GeneratedEmail{}, ErrMissingFields
	}

	text := stringField(fields, "text")
	if text == "" {
		text = StripHTML(html)
	}

	return GeneratedEmail{Subject: subject, HTML: html, Text: text}, nil
}

// StripHTML replaces tags with spaces and collapses whitespace.
func StripHTML(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return v
}
