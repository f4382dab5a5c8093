package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

// mockLogLevel is a valid zapcore.Level value for testing.
const mockLogLevel int8 = 0 // zapcore.InfoLevel

func TestGetReturnsLoggerInstance(t *testing.T) {
	logger := Get(mockLogLevel)
	if logger == nil {
		t.Fatal("Get should return a non-nil logger")
	}
}

func TestGetReturnsSameInstanceOnSubsequentCalls(t *testing.T) {
	logger1 := Get(mockLogLevel)
	logger2 := Get(mockLogLevel)
	if logger1 != logger2 {
		t.Error("Get should return the same logger instance on subsequent calls")
	}
}

func TestWithLoggerAddsLoggerToContext(t *testing.T) {
	ctx := context.Background()
	logger := Get(mockLogLevel)
	newCtx := WithLogger(ctx, logger)

	got := newCtx.Value(loggerContextKey{})
	if got == nil {
		t.Fatal("WithLogger should add logger to context")
	}
	if got != logger {
		t.Error("WithLogger should store the provided logger in context")
	}
}

func TestWithLoggerReturnsSameContextIfLoggerAlreadySet(t *testing.T) {
	ctx := context.Background()
	logger := Get(mockLogLevel)
	ctxWithLogger := context.WithValue(ctx, loggerContextKey{}, logger)

	resultCtx := WithLogger(ctxWithLogger, logger)
	if resultCtx != ctxWithLogger {
		t.Error("WithLogger should return the same context if logger is already set and matches")
	}
}

func TestWithLoggerReplacesLoggerIfDifferent(t *testing.T) {
	ctx := context.Background()
	logger1 := Get(mockLogLevel)
	logger2 := logr.Discard()
	ctxWithLogger := context.WithValue(ctx, loggerContextKey{}, logger1)

	resultCtx := WithLogger(ctxWithLogger, &logger2)
	got := resultCtx.Value(loggerContextKey{})
	if got != &logger2 {
		t.Error("WithLogger should replace logger in context if different")
	}
}

func TestFromContextReturnsLoggerFromContext(t *testing.T) {
	ctx := context.Background()
	logger := Get(mockLogLevel)
	ctxWithLogger := context.WithValue(ctx, loggerContextKey{}, logger)

	got := FromContext(ctxWithLogger)
	if got != logger {
		t.Error("FromContext should return the logger stored in context")
	}
}

func TestFromContextReturnsGlobalLoggerIfNoLoggerInContext(t *testing.T) {
	ctx := context.Background()
	globalLogger := Get(mockLogLevel)

	got := FromContext(ctx)
	if got != globalLogger {
		t.Error("FromContext should return the global logger if none in context")
	}
}

func TestFromContextReturnsNoopLoggerIfNoGlobalOrContextLogger(t *testing.T) {
	// Save and restore globalLogrLogger for isolation
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	ctx := context.Background()
	got := FromContext(ctx)
	if got == nil {
		t.Fatal("FromContext should return a logger (noop) if none in context or global")
	}
	if got != &defaultNoopLogger {
		t.Error("FromContext should return defaultNoopLogger if no logger is set")
	}
}

func TestSyncDoesNotPanicWhenGlobalZapLoggerIsNil(t *testing.T) {
	// Save and restore globalZapLogger for isolation
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Sync should not panic when globalZapLogger is nil, but got panic: %v", r)
		}
	}()
	Sync()
}

func TestGetGlobalLoggerReturnsGlobalLogger(t *testing.T) {
	// Save and restore globalLogrLogger for isolation
	orig := globalLogrLogger
	defer func() { globalLogrLogger = orig }()

	mockLogger := logr.Discard()
	globalLogrLogger = &mockLogger

	got := GetGlobalLogger()
	if got != &mockLogger {
		t.Error("GetGlobalLogger should return the globalLogrLogger when it is set")
	}
}

func TestGetGlobalLoggerReturnsNoopLoggerIfGlobalLoggerNil(t *testing.T) {
	// Save and restore globalLogrLogger for isolation
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	got := GetGlobalLogger()
	if got != &defaultNoopLogger {
		t.Error("GetGlobalLogger should return defaultNoopLogger when globalLogrLogger is nil")
	}
}

func TestGetNoopLoggerReturnsDefaultNoopLogger(t *testing.T) {
	got := GetNoopLogger()
	if got == nil {
		t.Fatal("GetNoopLogger should return a non-nil logger")
	}
	if got != &defaultNoopLogger {
		t.Error("GetNoopLogger should return defaultNoopLogger")
	}
}

func TestWithValuesReturnsNewLoggerWithValues(t *testing.T) {
	logger := Get(mockLogLevel)
	key := "testKey"
	value := "testValue"

	newLogger := WithValues(logger, key, value)
	if newLogger == nil {
		t.Fatal("WithValues should return a non-nil logger")
	}
	if newLogger == logger {
		t.Error("WithValues should return a new logger instance, not the original")
	}
}

func TestWithValuesHandlesNilLogger(t *testing.T) {
	var logger *logr.Logger = nil
	defer func() {
		if r := recover(); r == nil {
			t.Error("WithValues should panic when given a nil logger")
		}
	}()
	_ = WithValues(logger, "key", "value")
}

func TestNewWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(mockLogLevel, &buf)
	log.Info("patched", OperationsKey, 3, PathKey, "/items/0")
	log.V(1).Info("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry[MessageKey] != "patched" {
		t.Errorf("message = %v, want patched", entry[MessageKey])
	}
	if entry[OperationsKey] != float64(3) {
		t.Errorf("%s = %v, want 3", OperationsKey, entry[OperationsKey])
	}
	if _, ok := entry[TimeStampKey]; !ok {
		t.Errorf("missing %s field", TimeStampKey)
	}
	if _, ok := entry[VersionKey]; !ok {
		t.Errorf("missing %s field", VersionKey)
	}
}

func TestNewDebugLevelShowsVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(-1, &buf)
	log.V(1).Info("search progress")
	if !strings.Contains(buf.String(), "search progress") {
		t.Errorf("V(1) message should be written at debug level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    int8
		wantErr bool
	}{
		{name: "", want: 0},
		{name: "debug", want: -1},
		{name: "info", want: 0},
		{name: "warn", want: 1},
		{name: "error", want: 2},
		{name: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}
