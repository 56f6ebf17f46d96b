package apitest

import (
	"net/http"
	"runtime/debug"
)

// recoverPanics turns a handler panic into the API's unhandled-error reply:
// a plain-text 500, as the backend framework sends it.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			s.log.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
