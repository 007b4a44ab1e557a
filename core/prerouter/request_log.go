package prerouter

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caasmo/notespieces/core"
)

const logMessage = "http_request"

var logType = slog.String("type", "request")

// cutStr limits string length by adding ellipsis if needed
func cutStr(str string, max int) string {
	if max > 0 && len(str) > max {
		return str[:max] + "..."
	}
	return str
}

// RequestLog logs one line per request once the response is written.
type RequestLog struct {
	app *core.App
}

func NewRequestLog(app *core.App) *RequestLog {
	return &RequestLog{app: app}
}

func (l *RequestLog) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := l.app.Config().Log.Request
		if !cfg.Activated {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := core.NewResponseRecorder(w)
		next.ServeHTTP(rec, r)

		attrs := make([]any, 0, 10)
		attrs = append(attrs,
			logType,
			slog.String("method", strings.ToUpper(r.Method)),
			slog.String("uri", cutStr(r.URL.RequestURI(), cfg.URILength)),
			slog.Int("status", rec.Status),
			slog.Int64("bytes", rec.BytesWritten),
			slog.String("duration", time.Since(start).String()),
			slog.String("ip", l.app.ClientIP(r)),
			slog.String("user_agent", cutStr(r.UserAgent(), cfg.UserAgentLength)),
			slog.String("proto", r.Proto),
		)

		level := slog.LevelInfo
		if rec.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		l.app.Logger().Log(r.Context(), level, logMessage, attrs...)
	})
}
