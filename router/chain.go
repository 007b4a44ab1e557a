package router

import (
	"net/http"
)

// Chain wraps a handler with middlewares and observers.
type Chain struct {
	handler     http.Handler
	middlewares []func(http.Handler) http.Handler
	observers   []http.Handler
}

func NewChain(h http.Handler) *Chain {
	if h == nil {
		panic("chain handler cannot be nil")
	}
	return &Chain{handler: h}
}

// WithMiddleware adds middlewares that run in the order given, the first
// one being the outermost:
//
//	NewChain(h).WithMiddleware(mw1, mw2) // mw1 -> mw2 -> h
//
// Later calls add middlewares further in, closer to the handler.
func (c *Chain) WithMiddleware(middlewares ...func(http.Handler) http.Handler) *Chain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// WithObservers adds handlers that run after the chain, even when a
// middleware answered early. Observers must not write to the response.
func (c *Chain) WithObservers(observers ...http.Handler) *Chain {
	c.observers = append(c.observers, observers...)
	return c
}

func (c *Chain) Handler() http.Handler {
	handler := c.handler
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}

	if len(c.observers) == 0 {
		return handler
	}

	observers := c.observers
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler.ServeHTTP(w, req)
		for _, obs := range observers {
			obs.ServeHTTP(w, req)
		}
	})
}
