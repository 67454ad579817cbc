// Package logging provides structured JSON logging for tankclaim
// components. Every event carries the run ID so a single batch run can
// be grepped out of the stream.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	RunID     string                 `json:"run_id"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

var (
	runID    string
	runOnce  sync.Once
	minLevel = LevelInfo
	out      io.Writer = os.Stderr
	mu       sync.Mutex
)

// RunID returns the process-wide run identifier, minted on first use.
func RunID() string {
	runOnce.Do(func() {
		runID = ulid.Make().String()
	})
	return runID
}

// SetLevel sets the minimum level that gets emitted.
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	if _, ok := levelRank[Level(name)]; ok {
		mu.Lock()
		minLevel = Level(name)
		mu.Unlock()
	}
}

// threshold returns the current minimum level under the lock, so a
// SetLevel from another goroutine never races an emit.
func threshold() Level {
	mu.Lock()
	defer mu.Unlock()
	return minLevel
}

// SetOutput redirects log output (for testing).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Logger provides structured logging for one component.
type Logger struct {
	component string
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	if levelRank[level] < levelRank[threshold()] {
		return
	}

	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		RunID:     RunID(),
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	data, _ := json.Marshal(e)
	mu.Lock()
	fmt.Fprintln(out, string(data))
	mu.Unlock()
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with duration
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	if levelRank[LevelInfo] < levelRank[threshold()] {
		return
	}

	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		RunID:     RunID(),
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	}

	data, _ := json.Marshal(e)
	mu.Lock()
	fmt.Fprintln(out, string(data))
	mu.Unlock()
}
