package core

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/caasmo/notespieces/apperr"
)

// maxBodySize caps JSON request bodies. A note at its largest is well
// below it.
const maxBodySize = 1 << 20

// ClientIP returns the client address of r. Behind a proxy it is the first
// entry of the configured header.
func (a *App) ClientIP(r *http.Request) string {
	if header := a.Config().Server.ClientIpProxyHeader; header != "" {
		if forwarded := r.Header.Get(header); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return normalizeIP(strings.TrimSpace(first))
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return normalizeIP(ip)
}

func normalizeIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	return addr.Unmap().String()
}

// decodeJson reads the JSON body of r into dst and validates it.
func (a *App) decodeJson(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := a.validator.ContentType(r, MimeTypeJSON); err != nil {
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.ErrValidation.WithDetails(map[string]string{"body": "is too large"})
		case errors.Is(err, io.EOF):
			return apperr.ErrValidation.WithDetails(map[string]string{"body": "is required"})
		default:
			return apperr.ErrValidation.WithDetails(map[string]string{"body": "is not valid JSON"}).Wrap(err)
		}
	}

	return a.validator.Struct(dst)
}
