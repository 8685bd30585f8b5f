package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wholesale-backend/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey contextKey = "request_id"

// RequestLogging tags every request with an id and logs method, path, status and latency
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		fields := logrus.Fields{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"bytes":       wrapped.bytesWritten,
			"duration_ms": time.Since(start).Milliseconds(),
		}

		entry := logger.For("http").WithFields(fields)
		switch {
		case wrapped.statusCode >= 500:
			entry.Error("request completed")
		case wrapped.statusCode >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	})
}

// RequestIDFromContext returns the id assigned by RequestLogging, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func shouldSkipLogging(path string) bool {
	return path == "/health" || path == "/metrics"
}
