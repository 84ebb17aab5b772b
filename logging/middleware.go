package logging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// statusRecorderPool reuses wrappers across requests
var statusRecorderPool = sync.Pool{
	New: func() any {
		return &statusRecorder{statusCode: http.StatusOK}
	},
}

// unloggedPaths are polled by probes and scrapers
var unloggedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// LoggingMiddleware logs one structured line per request. Server errors log
// at error level, client errors at warn, everything else at info.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unloggedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			rec := statusRecorderPool.Get().(*statusRecorder)
			rec.ResponseWriter = w
			rec.statusCode = http.StatusOK
			rec.bytesWritten = 0
			defer statusRecorderPool.Put(rec)

			next.ServeHTTP(rec, r)

			requestID, ok := r.Context().Value(middleware.RequestIDKey).(string)
			if !ok || requestID == "" {
				requestID = "unknown"
			}

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
			}

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					attrs = append(attrs, "route", pattern)
				}
			}

			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}

			attrs = append(attrs,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"status_code", rec.statusCode,
				"bytes_written", rec.bytesWritten,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			level := slog.LevelInfo
			switch {
			case rec.statusCode >= 500:
				level = slog.LevelError
			case rec.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "HTTP request", attrs...)
		})
	}
}

// statusRecorder captures the status code and bytes written
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.bytesWritten += n
	return n, err
}
