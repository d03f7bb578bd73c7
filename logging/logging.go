// Package logging provides the severity-filtered, sink-based logger that the
// allocator core treats as a borrowed external collaborator. A Builder
// assembles one or more sinks (console, file), each with its own severity
// threshold; Build produces a Logger whose methods chain so call sites can
// write log.Trace(...).Debug(...) the way the allocator core does around
// every public operation.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Severity orders the log levels the core emits, from least to most urgent.
type Severity int

const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInformation
	SeverityWarning
	SeverityError
	SeverityCritical
)

// slog only ships Debug/Info/Warn/Error; Trace and Critical are modeled as
// custom levels below and above that range, per the documented pattern for
// extending slog with extra severities.
const (
	levelTrace    = slog.Level(-8)
	levelCritical = slog.Level(12)
)

func (s Severity) level() slog.Level {
	switch s {
	case SeverityTrace:
		return levelTrace
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInformation:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	case SeverityCritical:
		return levelCritical
	default:
		return slog.LevelInfo
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityTrace:
		return "TRACE"
	case SeverityDebug:
		return "DEBUG"
	case SeverityInformation:
		return "INFO"
	case SeverityWarning:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the chainable sink-fan-out logger the allocator core consumes.
// Every method logs at its severity to each sink whose threshold admits it,
// then returns the receiver so calls can be chained.
type Logger interface {
	Trace(msg string) Logger
	Debug(msg string) Logger
	Information(msg string) Logger
	Warning(msg string) Logger
	Error(msg string) Logger
	Critical(msg string) Logger

	// Close releases any sinks holding an open file descriptor.
	Close() error
}

type sink struct {
	handler slog.Handler
	closer  io.Closer
}

type multiLogger struct {
	sinks []sink
	ctx   context.Context
}

// Builder accumulates sink configuration before Build assembles a Logger.
type Builder struct {
	sinks []sink
	err   error
}

// NewBuilder returns an empty Builder with no sinks configured.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConsole adds a stdout sink that only emits records at or above min.
func (b *Builder) WithConsole(min Severity) *Builder {
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: min.level()})
	b.sinks = append(b.sinks, sink{handler: h})
	return b
}

// WithFile adds a sink backed by the file at path (created/appended to),
// emitting only records at or above min. The file is opened immediately so
// Build can report a bad path as an error rather than failing silently on
// first write.
func (b *Builder) WithFile(path string, min Severity) *Builder {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		b.err = fmt.Errorf("logging: open %q: %w", path, err)
		return b
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: min.level()})
	b.sinks = append(b.sinks, sink{handler: h, closer: f})
	return b
}

// Build assembles the configured sinks into a Logger. An empty Builder
// produces a Logger that discards every message but still satisfies the
// interface, so callers need not nil-check before constructing one.
func (b *Builder) Build() (Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &multiLogger{sinks: b.sinks, ctx: context.Background()}, nil
}

func (m *multiLogger) log(sev Severity, msg string) Logger {
	lvl := sev.level()
	for _, s := range m.sinks {
		if !s.handler.Enabled(m.ctx, lvl) {
			continue
		}
		r := slog.NewRecord(time.Now(), lvl, msg, 0)
		_ = s.handler.Handle(m.ctx, r)
	}
	return m
}

func (m *multiLogger) Trace(msg string) Logger       { return m.log(SeverityTrace, msg) }
func (m *multiLogger) Debug(msg string) Logger       { return m.log(SeverityDebug, msg) }
func (m *multiLogger) Information(msg string) Logger { return m.log(SeverityInformation, msg) }
func (m *multiLogger) Warning(msg string) Logger     { return m.log(SeverityWarning, msg) }
func (m *multiLogger) Error(msg string) Logger       { return m.log(SeverityError, msg) }
func (m *multiLogger) Critical(msg string) Logger    { return m.log(SeverityCritical, msg) }

func (m *multiLogger) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if s.closer == nil {
			continue
		}
		if err := s.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
