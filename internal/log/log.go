// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package log is the leveled logger of the tracing extension. Errors are
// aggregated per format string and reported periodically, so a failing
// tracer does not flood the application log.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/AxonFramework/extension-tracing-go/internal"
	"github.com/AxonFramework/extension-tracing-go/internal/version"
)

// Logger implementations are able to log given messages that the extension
// might output.
type Logger interface {
	// Log prints the given message.
	Log(msg string)
}

// Level specifies the logging level that the log package prints at.
type Level int

const (
	// LevelDebug represents debug level messages.
	LevelDebug Level = iota
	// LevelInfo represents informational messages.
	LevelInfo
	// LevelWarn represents warnings.
	LevelWarn
	// LevelError represents errors, which are always reported.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

var prefix = "Axon Tracing " + version.Tag

var (
	mu        sync.RWMutex // guards level and logger
	threshold        = LevelWarn
	logger    Logger = stderrLogger{log.New(os.Stderr, "", log.LstdFlags)}
)

var errs = newAggregator(
	internal.DurationEnv("AXON_TRACING_LOGGING_RATE", time.Minute),
	internal.IntEnv("AXON_TRACING_ERROR_LIMIT", defaultErrorLimit),
)

func init() {
	if internal.BoolEnv("AXON_TRACING_DEBUG", false) {
		threshold = LevelDebug
	}
}

// UseLogger sets l as the active logger and returns a function to restore the
// previous logger.
func UseLogger(l Logger) (undo func()) {
	mu.Lock()
	defer mu.Unlock()
	old := logger
	logger = l
	return func() {
		mu.Lock()
		defer mu.Unlock()
		logger = old
	}
}

// SetLevel sets the lowest level printed. Errors are printed regardless.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	threshold = min(lvl, LevelError)
}

// DebugEnabled reports whether debug messages are printed.
func DebugEnabled() bool {
	return enabled(LevelDebug)
}

func enabled(lvl Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return lvl >= threshold
}

// Debug prints a debug message.
func Debug(format string, a ...interface{}) {
	logf(LevelDebug, format, a...)
}

// Info prints an informational message.
func Info(format string, a ...interface{}) {
	logf(LevelInfo, format, a...)
}

// Warn prints a warning.
func Warn(format string, a ...interface{}) {
	logf(LevelWarn, format, a...)
}

// Error records an error. Errors sharing a format are reported together once
// every AXON_TRACING_LOGGING_RATE (a minute by default), or right away when
// the rate is zero.
func Error(format string, a ...interface{}) {
	for _, msg := range errs.add(format, a) {
		output(LevelError, msg)
	}
}

// Flush reports the aggregated errors now.
func Flush() {
	errs.flush()
}

func logf(lvl Level, format string, a ...interface{}) {
	if !enabled(lvl) {
		return
	}
	output(lvl, fmt.Sprintf(format, a...))
}

func output(lvl Level, msg string) {
	line := fmt.Sprintf("%s %s: %s", prefix, lvl, msg)
	mu.RLock()
	defer mu.RUnlock()
	logger.Log(line)
}

// defaultErrorLimit is the number of occurrences counted per error.
const defaultErrorLimit = 200

// aggregator collects errors by format until they are flushed.
type aggregator struct {
	rate  time.Duration
	limit uint64

	mu      sync.Mutex
	reports map[string]*errorReport
	order   []string // formats in the order they were first seen
	timer   *time.Timer
}

type errorReport struct {
	first time.Time
	msg   string // the first occurrence, formatted
	count uint64
}

func newAggregator(rate time.Duration, limit int) *aggregator {
	if rate < 0 {
		rate = time.Minute
	}
	if limit <= 0 {
		limit = defaultErrorLimit
	}
	return &aggregator{
		rate:    rate,
		limit:   uint64(limit),
		reports: make(map[string]*errorReport),
	}
}

// add records an occurrence of format and returns the messages to print
// immediately, if any.
func (a *aggregator) add(format string, args []interface{}) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.reports[format]
	if !ok {
		r = &errorReport{first: time.Now(), msg: fmt.Sprintf(format, args...)}
		a.reports[format] = r
		a.order = append(a.order, format)
	}
	if r.count <= a.limit {
		r.count++
	}
	if a.rate == 0 {
		return a.drainLocked()
	}
	if a.timer == nil {
		a.timer = time.AfterFunc(a.rate, a.flush)
	}
	return nil
}

func (a *aggregator) flush() {
	a.mu.Lock()
	msgs := a.drainLocked()
	a.mu.Unlock()
	for _, msg := range msgs {
		output(LevelError, msg)
	}
}

func (a *aggregator) drainLocked() []string {
	msgs := make([]string, 0, len(a.order))
	for _, format := range a.order {
		msgs = append(msgs, a.reports[format].describe(a.limit))
	}
	clear(a.reports)
	a.order = a.order[:0]
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	return msgs
}

func (r *errorReport) describe(limit uint64) string {
	first := r.first.Format(time.RFC822)
	switch {
	case r.count > limit:
		return fmt.Sprintf("%s, %d+ additional messages skipped (first occurrence: %s)", r.msg, limit, first)
	case r.count > 1:
		return fmt.Sprintf("%s, %d additional messages skipped (first occurrence: %s)", r.msg, r.count-1, first)
	}
	return r.msg
}

type stderrLogger struct{ l *log.Logger }

func (s stderrLogger) Log(msg string) { s.l.Print(msg) }

// RecordLogger keeps every message it is given. Tests use it to inspect
// the output of the extension.
type RecordLogger struct {
	m    sync.Mutex
	logs []string
}

// Log implements Logger.
func (r *RecordLogger) Log(msg string) {
	r.m.Lock()
	defer r.m.Unlock()
	r.logs = append(r.logs, msg)
}

// Logs returns a copy of the recorded messages, oldest first.
func (r *RecordLogger) Logs() []string {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]string(nil), r.logs...)
}

// Reset forgets the recorded messages.
func (r *RecordLogger) Reset() {
	r.m.Lock()
	defer r.m.Unlock()
	r.logs = nil
}

// DiscardLogger drops every message.
type DiscardLogger struct{}

// Log implements Logger.
func (DiscardLogger) Log(string) {}
