package router

import (
	"net/http"
	"strings"
)

// Router dispatches requests registered with patterns of the form
// "METHOD /path/{param}". A pattern without a method matches any method.
type Router interface {
	http.Handler
	Handle(pattern string, handler http.Handler)
	// Param returns the value of the named path parameter of req.
	Param(req *http.Request, key string) string
	// NotFound sets the handler for requests no pattern matches.
	NotFound(handler http.Handler)
}

// SplitPattern splits "GET /notes/{id}" into its method and path.
func SplitPattern(pattern string) (method, path string) {
	method, path, found := strings.Cut(strings.TrimSpace(pattern), " ")
	if !found {
		return "", method
	}
	return method, strings.TrimSpace(path)
}

// Route is an endpoint pattern with its handler chain.
type Route struct {
	Endpoint string
	chain    *Chain
}

func NewRoute(endpoint string) *Route {
	if endpoint == "" {
		panic("route endpoint cannot be empty")
	}
	return &Route{Endpoint: endpoint}
}

func (r *Route) WithHandler(h http.Handler) *Route {
	r.chain = NewChain(h)
	return r
}

func (r *Route) WithHandlerFunc(h http.HandlerFunc) *Route {
	return r.WithHandler(h)
}

// WithMiddleware appends middlewares, see Chain.WithMiddleware for the order.
func (r *Route) WithMiddleware(middlewares ...func(http.Handler) http.Handler) *Route {
	if r.chain == nil {
		panic("route handler must be set before middlewares")
	}
	r.chain.WithMiddleware(middlewares...)
	return r
}

func (r *Route) Handler() http.Handler {
	if r.chain == nil {
		panic("route handler cannot be nil")
	}
	return r.chain.Handler()
}

// Register adds every route to rt.
func Register(rt Router, routes ...*Route) {
	for _, route := range routes {
		rt.Handle(route.Endpoint, route.Handler())
	}
}
