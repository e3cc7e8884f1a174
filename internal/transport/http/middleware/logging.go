package httpmw

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/room-relay/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const loggerKey ctxKey = iota

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// RequestLogger кладёт *slog.Logger с req_id в контекст и пишет одну строку на запрос.
// Upgrade-запросы (/ws) логируются ws-сервером, здесь их пропускаем без обёртки,
// иначе http.Hijacker не доступен апгрейдеру.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.L().With(
			slog.String("req_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
		)
		r = r.WithContext(context.WithValue(r.Context(), loggerKey, l))

		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		level := slog.LevelInfo
		switch {
		case sw.status >= 500:
			level = slog.LevelError
		case sw.status >= 400:
			level = slog.LevelWarn
		}

		l.LogAttrs(r.Context(), level, "http_request",
			slog.Int("status", sw.status),
			slog.Int64("bytes", sw.bytes),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_ip", r.RemoteAddr),
		)
	})
}

// L извлекает логгер запроса, иначе глобальный.
func L(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return logger.L()
}
