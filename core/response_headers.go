package core

import (
	"net/http"
)

// HeadersJson are set on every API response.
var HeadersJson = map[string]string{
	"Content-Type": "application/json; charset=utf-8",

	// the browser must not sniff another content type out of the body
	"X-Content-Type-Options": "nosniff",

	// sessions and notes are private, nothing may be stored anywhere
	"Cache-Control": "no-store, no-cache, must-revalidate",

	"X-Frame-Options": "DENY",

	// A JSON body is never an active document. frame-ancestors is the
	// modern form of X-Frame-Options.
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// setHeaders applies one or more sets of headers to the response writer.
// Headers from later maps overwrite headers from earlier maps.
func setHeaders(w http.ResponseWriter, headers ...map[string]string) {
	h := w.Header()
	for _, set := range headers {
		for k, v := range set {
			h.Set(k, v)
		}
	}
}
