package logging

import (
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Leveled adapts a zap logger to retryablehttp.LeveledLogger.
type Leveled struct {
	inner *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = Leveled{}

// NewLeveled wraps l for use as an HTTP client logger.
func NewLeveled(l *zap.Logger) Leveled {
	return Leveled{inner: OrNop(l).Sugar()}
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

func (l Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}
