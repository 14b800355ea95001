package httpx

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures the status code and body size a handler
// writes so the access log can report them after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.written {
		return
	}
	sr.status = code
	sr.written = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// AccessLogMiddleware writes one key=value line per request, carrying
// the request id and authenticated user id pulled from the context.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sr, r)

		log.Printf("access method=%s path=%s status=%d bytes=%d duration_ms=%d request_id=%s user_id=%s",
			r.Method,
			r.URL.Path,
			sr.status,
			sr.bytes,
			time.Since(start).Milliseconds(),
			RequestIDFrom(r),
			UserIDFrom(r),
		)
	})
}
