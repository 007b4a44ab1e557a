package core

import (
	"encoding/json"
	"net/http"

	"github.com/caasmo/notespieces/apperr"
)

// Codes of responses that never change.
const (
	CodeOkLogout    = "ok_logout"
	CodeOkHealth    = "ok_health"
	CodeOkNoteGone  = "ok_note_deleted"
	CodeErrorServer = "SERVER_UNAVAILABLE"
)

type jsonResponse struct {
	status int
	body   []byte
}

// precomputeBasicResponse marshals a fixed body once, at initialization.
// Writing it is a plain copy of bytes.
func precomputeBasicResponse(status int, code, message string) jsonResponse {
	body, _ := json.Marshal(JsonBasic{Status: status, Code: code, Message: message})
	return jsonResponse{status: status, body: body}
}

func precomputeError(e *apperr.Error) jsonResponse {
	return precomputeBasicResponse(e.Status(), e.Code, e.Message)
}

var (
	okLogout   = precomputeBasicResponse(http.StatusOK, CodeOkLogout, "Logged out")
	okHealth   = precomputeBasicResponse(http.StatusOK, CodeOkHealth, "Service is healthy")
	okNoteGone = precomputeBasicResponse(http.StatusOK, CodeOkNoteGone, "Note deleted")

	errorRouteNotFound   = precomputeError(apperr.ErrRouteNotFound)
	errorIpBlocked       = precomputeError(apperr.ErrIpBlocked)
	errorTooManyRequests = precomputeError(apperr.ErrRateLimited)
	errorUnhealthy       = precomputeError(apperr.ErrStoreUnavailable)
)

// writeJsonResponse writes a precomputed response.
func writeJsonResponse(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, HeadersJson)
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}

// WriteIpBlocked answers a request from a blocked ip.
func WriteIpBlocked(w http.ResponseWriter) {
	writeJsonResponse(w, errorIpBlocked)
}

// WriteTooManyRequests answers a request refused by the global throttle.
func WriteTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	writeJsonResponse(w, errorTooManyRequests)
}
