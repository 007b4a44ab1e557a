package prerouter

import (
	"net/http"
	"time"

	"github.com/caasmo/notespieces/core"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
)

// Throttle is a token bucket per client ip in front of every route. It
// catches bursts long before the per route windows of the auth endpoints.
type Throttle struct {
	app     *core.App
	limiter *limiter.Limiter
}

func NewThrottle(app *core.App) *Throttle {
	cfg := app.Config().Throttle
	lmt := tollbooth.NewLimiter(cfg.RequestsPerSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetBurst(cfg.Burst)

	return &Throttle{app: app, limiter: lmt}
}

func (t *Throttle) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.app.Config().Throttle.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := t.app.ClientIP(r)
		if httpErr := tollbooth.LimitByKeys(t.limiter, []string{ip}); httpErr != nil {
			t.app.Logger().Debug("request throttled", "ip", ip)
			core.WriteTooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
