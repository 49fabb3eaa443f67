package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"
)

// Logger writes one access log line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ctx := r.Context()
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"request_id", GetRequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", ClientIPFromRequest(r),
			}
			attrs = append(attrs, userAgentAttrs(r.Header.Get("User-Agent"))...)

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "http request", attrs...)
		})
	}
}

func userAgentAttrs(raw string) []any {
	if raw == "" {
		return nil
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	return []any{
		"ua_browser", browser,
		"ua_browser_version", version,
		"ua_os", ua.OS(),
		"ua_bot", ua.Bot(),
		"ua_mobile", ua.Mobile(),
	}
}
