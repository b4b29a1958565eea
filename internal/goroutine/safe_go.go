package goroutine

import (
	"context"
	"runtime/debug"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// GoWithContext запускает горутину с контекстом и обработкой panic.
func GoWithContext(ctx context.Context, log Logger, fn func(context.Context)) {
	go func() {
		defer recoverWith(log)
		fn(ctx)
	}()
}

func recoverWith(log Logger) {
	if r := recover(); r != nil {
		log.Errorf("panic in goroutine: %v\nstack trace:\n%s", r, debug.Stack())
	}
}
