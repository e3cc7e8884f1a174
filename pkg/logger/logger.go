package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	mu  sync.RWMutex
	def *slog.Logger
)

// Init настраивает slog в зависимости от среды
func Init(cfg Config) {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "app"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	// Выбор бекенда по умолчанию
	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}

	h = traceHandler{h.WithAttrs(commonAttr(cfg))}

	base := slog.New(h)
	slog.SetDefault(base)

	mu.Lock()
	def = base
	mu.Unlock()
}

func L() *slog.Logger {
	mu.RLock()
	l := def
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(Config{})
	return L()
}

// FromContext возвращает логгер с trace_id/span_id текущего спана.
func FromContext(ctx context.Context) *slog.Logger {
	attrs := AttrsFromCtx(ctx)
	if len(attrs) == 0 {
		return L()
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return L().With(args...)
}
