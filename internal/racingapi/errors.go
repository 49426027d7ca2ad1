package racingapi

import "fmt"

// FetchError represents a non-retryable API failure: a 4xx other than
// 429, or exhausted retries.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch error: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch error: %s: %s", e.Endpoint, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// AuthenticationError represents a credential failure; callers treat it
// as fatal.
type AuthenticationError struct {
	Message string
	Cause   error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// ParseError represents a document that failed schema normalisation.
// The offending document is skipped and counted, never fatal.
type ParseError struct {
	DocumentID string
	Field      string
	Message    string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse error in document %s, field %s: %s", e.DocumentID, e.Field, e.Message)
	}
	return fmt.Sprintf("parse error in document %s: %s", e.DocumentID, e.Message)
}

// NewFetchError creates a new fetch error
func NewFetchError(endpoint string, status int, message string, cause error) *FetchError {
	return &FetchError{Endpoint: endpoint, StatusCode: status, Message: message, Cause: cause}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, cause error) *AuthenticationError {
	return &AuthenticationError{Message: message, Cause: cause}
}

// NewParseError creates a new parse error
func NewParseError(documentID, field, message string) *ParseError {
	return &ParseError{DocumentID: documentID, Field: field, Message: message}
}
