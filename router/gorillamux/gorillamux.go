// Package gorillamux adapts gorilla/mux to router.Router. It is the default
// router: routes match in registration order.
package gorillamux

import (
	"net/http"

	"github.com/caasmo/notespieces/router"
	"github.com/gorilla/mux"
)

type Router struct {
	*mux.Router
}

var _ router.Router = (*Router)(nil)

func New() *Router {
	return &Router{Router: mux.NewRouter()}
}

// Handle registers handler for "METHOD /path/{param}". gorilla/mux uses
// the same {param} syntax, the path is passed through unchanged.
func (r *Router) Handle(pattern string, handler http.Handler) {
	method, path := router.SplitPattern(pattern)
	route := r.Router.Handle(path, handler)
	if method != "" {
		route.Methods(method)
	}
}

func (r *Router) Param(req *http.Request, key string) string {
	return mux.Vars(req)[key]
}

// NotFound answers both unknown paths and method mismatches.
func (r *Router) NotFound(h http.Handler) {
	r.Router.NotFoundHandler = h
	r.Router.MethodNotAllowedHandler = h
}
