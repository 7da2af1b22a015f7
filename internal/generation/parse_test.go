package generation

import (
	"errors"
	"testing"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

func TestParseModelResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    GeneratedEmail
		wantErr error
	}{
		{
			name: "bare object",
			raw:  `{"subject":"Hi","html":"<p>Hello</p>","text":"Hello"}`,
			want: GeneratedEmail{Subject: "Hi", HTML: "<p>Hello</p>", Text: "Hello"},
		},
		{
			name: "fenced with prose",
			raw:  "Sure! Here you go:\n```json\n{\"subject\":\"Hi\",\"html\":\"<p>Hello</p>\",\"text\":\"Hello\"}\n```\nEnjoy.",
			want: GeneratedEmail{Subject: "Hi", HTML: "<p>Hello</p>", Text: "Hello"},
		},
		{
			name: "derived text",
			raw:  `{"subject":"Hi","html":"<p>Hello <b>there</b></p>\n<p>friend</p>"}`,
			want: GeneratedEmail{Subject: "Hi", HTML: "<p>Hello <b>there</b></p>\n<p>friend</p>", Text: "Hello there friend"},
		},
		{
			name:    "no object",
			raw:     "I cannot help with that.",
			wantErr: ErrNoJSONObject,
		},
		{
			name:    "closing before opening",
			raw:     "} nothing {",
			wantErr: ErrNoJSONObject,
		},
		{
			name:    "invalid json",
			raw:     `{"subject": "Hi", html: }`,
			wantErr: errs.ErrParsing,
		},
		{
			name:    "missing html",
			raw:     `{"subject":"Hi"}`,
			wantErr: ErrMissingFields,
		},
		{
			name:    "empty subject",
			raw:     `{"subject":"","html":"<p>x</p>"}`,
			wantErr: ErrMissingFields,
		},
		{
			name:    "non string subject",
			raw:     `{"subject":42,"html":"<p>x</p>"}`,
			wantErr: ErrMissingFields,
		},
		{
			name:    "stray brace after object widens span",
			raw:     `{"subject":"Hi","html":"<p>x</p>"} trailing }`,
			wantErr: errs.ErrParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseModelResponse(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, errs.ErrParsing) {
					t.Fatalf("expected ErrParsing in chain, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestParseModelResponse_BraceInsideString(t *testing.T) {
	t.Parallel()

	// A brace inside a string value before the real closing brace is fine
	// because the last "}" still closes the object.
	got, err := ParseModelResponse(`{"subject":"Save {big}","html":"<p>x</p>"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Subject != "Save {big}" || got.Text != "x" {
		t.Fatalf("unexpected email: %+v", got)
	}
}
