// Package clients holds the process-wide outbound clients that are built
// on first use: the chat completion client and the mail provider.
package clients

import (
	"net/http"
	"sync"

	"github.com/mailsmithapp/mailsmith/internal/completion"
	"github.com/mailsmithapp/mailsmith/internal/email"
)

type Config struct {
	Completion completion.Config
	Mail       email.Config
	HTTPClient *http.Client
}

// Registry builds each client at most once until Reset.
type Registry struct {
	config Config

	mu            sync.Mutex
	completion    *completion.Client
	completionErr error
	completionSet bool
	mailer        email.Provider
	mailerErr     error
	mailerSet     bool
}

func NewRegistry(config Config) *Registry {
	return &Registry{config: config}
}

// Completion returns the shared completion client. An unconfigured API key
// yields errs.ErrFeatureDisabled on every call.
func (r *Registry) Completion() (*completion.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.completionSet {
		r.completion, r.completionErr = completion.New(r.config.Completion, r.config.HTTPClient)
		r.completionSet = true
	}
	return r.completion, r.completionErr
}

// Mailer returns the shared mail provider.
func (r *Registry) Mailer() (email.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.mailerSet {
		r.mailer, r.mailerErr = email.NewProvider(r.config.Mail)
		r.mailerSet = true
	}
	return r.mailer, r.mailerErr
}

// Reset drops every memoized client so the next call rebuilds it.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completion, r.completionErr, r.completionSet = nil, nil, false
	r.mailer, r.mailerErr, r.mailerSet = nil, nil, false
}
