package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Logger defines a minimal, printf-style logging contract. Packages depend
// on this interface so tests can swap in a no-op or capturing logger.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger { return nopLogger{} }

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

type fileLogger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	component string
}

var (
	rootOnce sync.Once
	rootOut  io.Writer
)

// rootWriter opens the shared debug log once and falls back to stderr when
// the log file cannot be created.
func rootWriter() io.Writer {
	rootOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			rootOut = os.Stderr
			return
		}
		path := filepath.Join(home, "tinygpt-debug.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("logging: falling back to stderr: %v", err)
			rootOut = os.Stderr
			return
		}
		rootOut = io.MultiWriter(file, os.Stderr)
	})
	return rootOut
}

// NewComponentLogger creates the default application logger scoped to a
// component name that prefixes every record.
func NewComponentLogger(component string) Logger {
	return &fileLogger{
		out:       rootWriter(),
		level:     levelFromEnv(),
		component: component,
	}
}

// NewWriterLogger creates a logger that writes to the supplied writer.
// Used by tests and the CLI for plain stderr output.
func NewWriterLogger(w io.Writer, component string, level Level) Logger {
	return &fileLogger{out: w, level: level, component: component}
}

func levelFromEnv() Level {
	switch os.Getenv("TINYGPT_LOG_LEVEL") {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func (l *fileLogger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05.000"), level, l.component, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}

func (l *fileLogger) Debug(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.logf(ERROR, format, args...) }
