package httputil

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	dErrors "arefa/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses. Errors
// without a domain code become a bare internal_error.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	response := map[string]string{"error": DomainCodeToHTTPCode(code)}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		response["error_description"] = domainErr.Message
	}
	WriteJSON(w, DomainCodeToHTTPStatus(code), response)
}

// SetAttachment prepares headers for a file download. Non-ASCII file names
// are encoded per RFC 2231 by mime.FormatMediaType.
func SetAttachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeNoMatches:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeEmptyArchive:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field of
// the JSON envelope.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeNoMatches:
		return "no_matches"
	case dErrors.CodeEmptyArchive:
		return "empty_archive"
	case dErrors.CodeTooLarge:
		return "payload_too_large"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}
