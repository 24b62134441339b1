package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/logger"
)

const requestIDHeader = "X-Request-ID"

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP status codes.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case domain.IsAlreadyExists(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.ErrorKV(ctx, "HTTP request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// statusRecorder remembers the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter

	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(ctx context.Context) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				started   = time.Now()
				recorder  = &statusRecorder{ResponseWriter: w, code: http.StatusOK}
				requestID = r.Header.Get(requestIDHeader)
			)

			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, requestID)

			reqCtx := logger.WithKV(logger.ToContext(r.Context(), logger.FromContext(ctx)), "request_id", requestID)
			next.ServeHTTP(recorder, r.WithContext(reqCtx))

			logger.DebugKV(reqCtx, "HTTP request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.code,
				"duration", time.Since(started))
		})
	}
}

// recoveryLogger adapts the zap logger to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	ctx context.Context //nolint:containedctx // Carries the scoped logger only.
}

func (l recoveryLogger) Println(v ...any) {
	logger.Error(l.ctx, v...)
}
