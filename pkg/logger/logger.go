// Package logger sets up the zap backed logr.Logger used by jsonstate and
// carries it through contexts.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/oakwood-commons/jsonstate/pkg/settings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Define an unexported custom type for the context key to prevent collisions.
type loggerContextKey struct{}

const (
	RootCommandKey = "root_command"
	SubCommandKey  = "sub_command"
	CommitKey      = "commit"
	VersionKey     = "version"
	BuildTimeKey   = "build_time"
	GoVersionKey   = "go_version"
	TimeStampKey   = "timestamp"
	MessageKey     = "message"

	// Keys used by the engine when logging document activity.
	DocumentKey   = "document"
	OperationsKey = "operations"
	PathKey       = "path"
	ResultsKey    = "results"
)

var (
	once sync.Once // Ensures Get initializes only once

	// globalZapLogger is the underlying *zap.Logger, kept for Sync().
	globalZapLogger *zap.Logger

	// globalLogrLogger is the logger handed out when a context carries none.
	globalLogrLogger *logr.Logger

	// defaultNoopLogger is a logger that does nothing, used as a fallback.
	defaultNoopLogger logr.Logger = logr.Discard()
)

// Get initializes the global Zap and Logr loggers writing JSON to stderr.
// Only the first call has an effect; later calls return the same logger.
// logLevel is a zapcore.Level: -1 debug, 0 info, 1 warn, 2 error. logr
// V(n) calls map to zap level -n, so V(1) is shown at debug level.
func Get(logLevel int8) *logr.Logger {
	once.Do(func() {
		globalZapLogger = newZap(logLevel, zapcore.Lock(os.Stderr))
		gl := zapr.NewLogger(globalZapLogger)
		globalLogrLogger = &gl
	})
	if globalLogrLogger == nil {
		return &defaultNoopLogger
	}
	return globalLogrLogger
}

// New builds a standalone logger writing JSON lines to w. It does not touch
// the global logger and is meant for tests and embedding hosts.
func New(logLevel int8, w io.Writer) logr.Logger {
	return zapr.NewLogger(newZap(logLevel, zapcore.AddSync(w)))
}

func newZap(logLevel int8, sink zapcore.WriteSyncer) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	goVersion := "unknown"
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		goVersion = buildInfo.GoVersion
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		sink,
		zap.NewAtomicLevelAt(zapcore.Level(logLevel)),
	).With(
		[]zapcore.Field{
			zap.String(CommitKey, settings.VersionInformation.Commit),
			zap.String(VersionKey, settings.VersionInformation.BuildVersion),
			zap.String(BuildTimeKey, settings.VersionInformation.BuildTime),
			zap.String(GoVersionKey, goVersion),
		},
	)

	// zap.WithFatalHook(zapcore.WriteThenPanic) flushes before panicking on Fatal.
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.WithFatalHook(zapcore.WriteThenPanic),
	)
}

// ParseLevel converts a level name (debug, info, warn, error) into the value
// expected by Get.
func ParseLevel(name string) (int8, error) {
	if name == "" {
		return int8(zapcore.InfoLevel), nil
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return int8(level), nil
}

// WithLogger returns a new context with the provided logr.Logger attached.
// If the context already contains the same logger instance, it returns the original context.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		if lp == log {
			return ctx
		}
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext retrieves the logr.Logger from the context.
// If no logger is found in the context, it returns the globally configured logger,
// and a no-op logger when Get was never called.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	} else if log := globalLogrLogger; log != nil {
		return log
	}
	return &defaultNoopLogger
}

// Sync flushes any buffered log entries to their destination.
// This should be called before the application exits, typically via `defer logger.Sync()` in main.
func Sync() {
	if globalZapLogger != nil {
		if err := globalZapLogger.Sync(); err != nil {
			if isIgnorableSyncError(err) {
				return
			}
			fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
		}
	}
}

// isIgnorableSyncError returns true for common Sync errors on pipes/TTYs.
// Windows consoles can return ERROR_INVALID_HANDLE wrapped in *os.PathError,
// which does not compare equal to syscall.EINVAL, so we also string-match.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	if strings.Contains(err.Error(), "The handle is invalid") {
		return true
	}
	return false
}

// GetGlobalLogger returns the globally configured logr.Logger, or a no-op
// logger if Get has not been called.
func GetGlobalLogger() *logr.Logger {
	if globalLogrLogger != nil {
		return globalLogrLogger
	}
	return &defaultNoopLogger
}

func GetNoopLogger() *logr.Logger {
	return &defaultNoopLogger
}

// WithValues returns a new logr.Logger with additional key-value pairs.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	nlgr := lgr.WithValues(keysAndValues...)
	return &nlgr
}
