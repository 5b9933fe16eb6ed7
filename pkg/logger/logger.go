// Package logger is the process-wide logging facade. Components log through
// the package functions with a bracketed component prefix and key/value
// pairs; Init decides which backends receive the entries.
package logger

import "sync/atomic"

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds the backends one Init call installed.
type Logger struct {
	instances []LoggerInstance
}

var current atomic.Pointer[Logger]

// Init installs the backends. It may be called again, e.g. by tests;
// handlers running concurrently see either the old or the new set.
// Calls made before Init are dropped.
func Init(instances ...LoggerInstance) {
	current.Store(&Logger{instances: instances})
}

func dispatch(emit func(LoggerInstance)) {
	l := current.Load()
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		emit(instance)
	}
}

// Log writes at the backend's default level.
func Log(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Log(message, keyvals...) })
}

func Info(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Info(message, keyvals...) })
}

func Warn(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Warn(message, keyvals...) })
}

func Error(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Error(message, keyvals...) })
}

// Debug entries are only shown by backends running at debug level.
func Debug(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Debug(message, keyvals...) })
}

// Fatal logs and leaves terminating the process to the backend.
func Fatal(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Fatal(message, keyvals...) })
}
