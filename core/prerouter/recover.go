package prerouter

import (
	"net/http"

	"github.com/caasmo/notespieces/core"
)

// Recover is the outermost layer: a panic anywhere below is answered
// through the application error writer.
type Recover struct {
	app *core.App
}

func NewRecover(app *core.App) *Recover {
	return &Recover{app: app}
}

func (rc *Recover) Execute(next http.Handler) http.Handler {
	return rc.app.Recover(next)
}
