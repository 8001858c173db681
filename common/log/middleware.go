package log

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (l *Logger) RequestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		l.Info(req.Context(), "new http request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// RecoveryMiddleware answers 500 when a handler panics. The panic value is
// logged, never returned to the client.
func (l *Logger) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if r := recover(); r != nil {
				l.Err(req.Context(), "recovered from panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"message": "An internal server error occurred.",
				})
			}
		}()
		next.ServeHTTP(w, req)
	})
}
