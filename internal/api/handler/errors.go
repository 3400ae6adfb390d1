package handler

import (
	"net/http"

	"github.com/mcoot/codebattle-go/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodePlayerNotFound     = apierr.CodePlayerNotFound
	CodeProfileNotFound    = apierr.CodeProfileNotFound
	CodeAlreadyQueued      = apierr.CodeAlreadyQueued
	CodeNotQueued          = apierr.CodeNotQueued
	CodeMatchNotFound      = apierr.CodeMatchNotFound
	CodeNotParticipant     = apierr.CodeNotParticipant
	CodeMatchNotActive     = apierr.CodeMatchNotActive
	CodeMatchCompleted     = apierr.CodeMatchCompleted
	CodeSessionNotFound    = apierr.CodeSessionNotFound
	CodeChallengeNotFound  = apierr.CodeChallengeNotFound
	CodeNoChallenges       = apierr.CodeNoChallenges
	CodeProgressNotFound   = apierr.CodeProgressNotFound
	CodeUsernameExists     = apierr.CodeUsernameExists
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
