package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nguyendangtritoan/german-note/pkg/ctxutil"
)

// Logger writes one "http.request" record per request once the handler
// returns. Probe endpoints are logged at debug, client errors at warn and
// server errors at error.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			ctx := r.Context()
			attrs := make([]slog.Attr, 0, 8)
			attrs = append(attrs,
				slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.status),
				slog.Int64("bytes", rw.written),
				slog.Duration("duration", time.Since(start)),
			)
			if id, ok := ctxutil.IdentityIDFromCtx(ctx); ok {
				attrs = append(attrs,
					slog.String("identity_id", id.String()),
					slog.Bool("anonymous", ctxutil.IsAnonymous(ctx)),
				)
			}

			logger.LogAttrs(ctx, requestLevel(r.URL.Path, rw.status), "http.request", attrs...)
		})
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case isProbe(path):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isProbe(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "/live", "/ready", "/health":
		return true
	}
	return false
}

// responseRecorder captures the status code and body size.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (w *responseRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController so event
// streams can flush.
func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
