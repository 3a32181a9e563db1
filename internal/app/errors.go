package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")

	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrKeywordNotFound  = errors.New("keyword not found")

	// ErrInvalidDocument marks uploads that are not well-formed PDFs.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrLLMUnavailable and ErrVectorStoreUnavailable surface external
	// dependency failures as retryable 5xx errors instead of crashing the
	// request. No automatic retry is performed server-side.
	ErrLLMUnavailable         = errors.New("llm provider unavailable")
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)
