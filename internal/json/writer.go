package json

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/save2win/save2win-front/internal/log"
)

// ErrorResponse is the error body every relay endpoint returns. Error is a
// stable machine-readable kind; Details is a human diagnostic.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteResponse writes a JSON response with the given status code
func WriteResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.LogError("Failed to encode JSON response: %v", err)
		return err
	}
	return nil
}

// Write writes a JSON response with 200 OK status
func Write(w http.ResponseWriter, data any) error {
	return WriteResponse(w, http.StatusOK, data)
}

// WriteRaw writes an already-encoded JSON document with 200 OK status
func WriteRaw(w http.ResponseWriter, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, statusCode int, kind string, details string) {
	response := ErrorResponse{
		Error:   kind,
		Details: details,
	}

	if err := WriteResponse(w, statusCode, response); err != nil {
		// Fallback to plain text error if JSON encoding fails
		http.Error(w, kind+": "+details, statusCode)
	}
}

// WriteUnauthenticated writes the local "no credential" 401. The challenge
// header lets non-browser callers know a bearer token is accepted.
func WriteUnauthenticated(w http.ResponseWriter, realm string, details string) {
	if realm != "" {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s"`, escapeQuotedString(realm)))
	}
	WriteError(w, http.StatusUnauthorized, "unauthenticated", details)
}

// escapeQuotedString escapes a string for use in an RFC 9110 quoted-string
func escapeQuotedString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}

func WriteInternalServerError(w http.ResponseWriter, details string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", details)
}

func WriteBadRequest(w http.ResponseWriter, details string) {
	WriteError(w, http.StatusBadRequest, "bad_request", details)
}

func WriteNotFound(w http.ResponseWriter, details string) {
	WriteError(w, http.StatusNotFound, "not_found", details)
}

func WriteForbidden(w http.ResponseWriter, details string) {
	WriteError(w, http.StatusForbidden, "forbidden", details)
}

func WriteMethodNotAllowed(w http.ResponseWriter, allow ...string) {
	if len(allow) > 0 {
		w.Header().Set("Allow", strings.Join(allow, ", "))
	}
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}
