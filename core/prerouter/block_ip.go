package prerouter

import (
	"net/http"

	"github.com/caasmo/notespieces/core"
	"github.com/caasmo/notespieces/topk"
)

const blockKeyPrefix = "blockip:"

// BlockIp is a circuit breaker against clients flooding the server. It is
// not a quota system: clients are only reported by the sketch while the
// request rate is above the activation threshold.
type BlockIp struct {
	app    *core.App
	sketch *topk.TopKSketch
}

// NewBlockIp sizes the sketch from the configured level. The level was
// checked by config.Validate.
func NewBlockIp(app *core.App) *BlockIp {
	cfg := app.Config().BlockIp
	params := topk.Levels[cfg.Level]
	params.ActivationRPS = cfg.ActivationRPS

	return &BlockIp{
		app:    app,
		sketch: topk.New(params),
	}
}

func (b *BlockIp) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.app.Config().BlockIp.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := b.app.ClientIP(r)
		if b.IsBlocked(ip) {
			core.WriteIpBlocked(w)
			return
		}
		b.Process(ip)

		next.ServeHTTP(w, r)
	})
}

// IsBlocked reports whether ip is in the block list.
func (b *BlockIp) IsBlocked(ip string) bool {
	_, found := b.app.Cache().Get(blockKeyPrefix + ip)
	return found
}

// Block puts ip in the block list for the configured duration. The entry
// expires on its own.
func (b *BlockIp) Block(ip string) {
	ttl := b.app.Config().BlockIp.BlockDuration.Duration
	if !b.app.Cache().SetWithTTL(blockKeyPrefix+ip, true, 1, ttl) {
		b.app.Logger().Error("failed to block ip", "ip", ip)
		return
	}
	b.app.Logger().Info("ip blocked", "ip", ip, "duration", ttl)
}

// Process counts a request of ip and blocks the clients the sketch
// reports. Blocking runs off the request path; repeated blocks of the same
// ip overwrite the same cache key.
func (b *BlockIp) Process(ip string) {
	offenders := b.sketch.ProcessTick(ip)
	if len(offenders) == 0 {
		return
	}

	go func(ips []string) {
		for _, ip := range ips {
			b.Block(ip)
		}
	}(offenders)
}
