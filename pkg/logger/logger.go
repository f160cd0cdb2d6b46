// Package logger provides the zap backed types.Logger used across reqguard
package logger

import (
	"sync"

	"github.com/harriteja/reqguard/pkg/types"
)

var (
	mu            sync.RWMutex
	defaultLogger types.Logger = types.NewNoOpLogger()
)

// SetDefaultLogger sets the logger returned by Default. Nil is ignored.
func SetDefaultLogger(logger types.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// Default returns the process wide logger
func Default() types.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// New returns the default logger tagged with a component name
func New(name string) types.Logger {
	return Default().With(types.LogField{Key: "logger", Value: name})
}

// OrDefault returns l, or the default logger when l is nil
func OrDefault(l types.Logger) types.Logger {
	if l == nil {
		return Default()
	}
	return l
}
