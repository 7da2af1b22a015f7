// Package errs holds the sentinel errors shared across mailsmith packages.
// Callers wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
package errs

import "errors"

var (
	// ErrConfiguration means a required secret or setting is missing or invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput is returned when a request is missing required values
	// or carries malformed ones.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthentication covers signature, state, and shop-binding failures.
	ErrAuthentication = errors.New("authentication failed")

	// ErrExchangeFailed is returned when the platform rejects an authorization code.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrDecryption means a stored secret could not be decrypted.
	ErrDecryption = errors.New("decryption failed")

	// ErrParsing means a model response could not be turned into an email.
	ErrParsing = errors.New("parsing failed")

	// ErrGeneration is the uniform outward error of the email generator.
	ErrGeneration = errors.New("failed to generate email content")

	// ErrNetwork wraps transport-level failures talking to external services.
	ErrNetwork = errors.New("network error")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFeatureDisabled means an optional integration was not configured.
	ErrFeatureDisabled = errors.New("feature not configured")
)
