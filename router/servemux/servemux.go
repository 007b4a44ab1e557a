package servemux

import (
	"net/http"

	"github.com/caasmo/notespieces/router"
)

// ServeMuxRouter implements router.Router using net/http ServeMux
type ServeMuxRouter struct {
	*http.ServeMux
	notFound http.Handler
}

func New() *ServeMuxRouter {
	return &ServeMuxRouter{ServeMux: http.NewServeMux()}
}

var _ router.Router = (*ServeMuxRouter)(nil)

func (s *ServeMuxRouter) Param(req *http.Request, key string) string {
	return req.PathValue(key)
}

// NotFound serves h for requests no registered pattern matches, method
// mismatches included.
func (s *ServeMuxRouter) NotFound(h http.Handler) {
	s.notFound = h
}

func (s *ServeMuxRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.notFound != nil {
		// unmatched requests report an empty pattern
		if _, pattern := s.ServeMux.Handler(r); pattern == "" {
			s.notFound.ServeHTTP(w, r)
			return
		}
	}
	s.ServeMux.ServeHTTP(w, r)
}
