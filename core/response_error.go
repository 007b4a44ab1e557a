package core

import (
	"net/http"
	"strconv"

	"github.com/caasmo/notespieces/apperr"
)

// WriteError is the single exit of failed requests. Domain errors are
// answered with their status and code. Anything else is logged and
// answered with a 500; its cause reaches the client only in development.
func (a *App) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Kind == apperr.KindUnavailable {
			a.logger.Warn("dependency unavailable", "code", e.Code, "path", r.URL.Path, "error", e.Err)
		}
		if e.WaitTime > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(e.WaitTime))
		}
		writeJson(w, e.Status(), JsonError{
			JsonBasic: JsonBasic{Status: e.Status(), Code: e.Code, Message: e.Message},
			WaitTime:  e.WaitTime,
			Details:   e.Details,
		})
		return
	}

	a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)

	message := "Internal server error"
	if !a.Config().Server.IsProduction() {
		message += ": " + err.Error()
	}
	writeJson(w, http.StatusInternalServerError, JsonError{
		JsonBasic: JsonBasic{Status: http.StatusInternalServerError, Code: CodeErrorServer, Message: message},
	})
}
