// Package shared provides debugging and development utilities for the
// simulation node and cluster directory.
//
// Debug Mode:
// All debug functions check DEBUG_MODE before producing verbose output.
// Set the DEBUG environment variable to "true" to enable it.
//
// Call sites never touch the underlying logger directly — DebugPrint,
// DebugError, DebugErrorf and DebugPanic are the entire surface, backed by zap so every
// line carries structured caller info instead of a bare fmt string.
package shared

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	loggerOnce sync.Once
	logger     *zap.SugaredLogger
)

func sugared() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		if DEBUG_MODE {
			cfg = zap.NewDevelopmentConfig()
		}
		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			l = zap.NewNop()
		}
		logger = l.Sugar()
	})
	return logger
}

// DebugPrint automatically gets file, line, and function info.
func DebugPrint(format string, args ...interface{}) {
	if !DEBUG_MODE {
		return
	}
	filename, line, funcName := caller()
	sugared().Debugf("[%s:%d %s]: "+format, append([]interface{}{filename, line, funcName}, args...)...)
}

// DebugError prints an error message with file/line info.
func DebugError(err error) {
	if !DEBUG_MODE {
		sugared().Errorf("ERROR: %v", err)
		return
	}
	filename, line, funcName := caller()
	sugared().Errorf("ERROR [%s:%d %s]: %v", filename, line, funcName, err)
}

// DebugErrorf prints a formatted error message with file/line info.
func DebugErrorf(format string, args ...interface{}) {
	if !DEBUG_MODE {
		sugared().Errorf(format, args...)
		return
	}
	filename, line, funcName := caller()
	sugared().Errorf("[%s:%d %s]: "+format, append([]interface{}{filename, line, funcName}, args...)...)
}

// DebugPanic reports a critical invariant violation. In release builds it
// only logs, so a single bad request can't take the whole node down; in
// debug builds it panics immediately so the failure is loud during
// development. The room tick loop recovers from panics and tears down only
// the offending room (§7 "Fatal room").
func DebugPanic(format string, args ...interface{}) {
	if !DEBUG_MODE {
		sugared().Errorf("CRITICAL ERROR (would panic in debug): "+format, args...)
		return
	}
	filename, line, funcName := caller()
	sugared().Panicf("PANIC [%s:%d %s]: "+format, append([]interface{}{filename, line, funcName}, args...)...)
}

func caller() (filename string, line int, funcName string) {
	pc, file, ln, ok := runtime.Caller(2)
	if !ok {
		return "?", 0, "?"
	}
	return filepath.Base(file), ln, shortFuncName(runtime.FuncForPC(pc).Name())
}

func shortFuncName(fullName string) string {
	if lastSlash := strings.LastIndex(fullName, "/"); lastSlash >= 0 {
		fullName = fullName[lastSlash+1:]
	}
	if lastDot := strings.LastIndex(fullName, "."); lastDot >= 0 {
		return fullName[lastDot+1:]
	}
	return fullName
}
