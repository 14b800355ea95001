package httpx

import (
	"log"
	"net/http"
	"runtime/debug"
)

// Recovery converts panics into 500 responses so a bad handler cannot
// take down the whole server.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("level=error msg=\"panic recovered\" request_id=%s err=%v\n%s",
					RequestIDFrom(r), rec, debug.Stack())
				JSONError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
