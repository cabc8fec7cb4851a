package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tis24dev/showsave/internal/types"
)

type bootstrapEntry struct {
	level   types.LogLevel
	message string
	raw     bool
}

// BootstrapLogger collects the output produced before the configuration is
// loaded (flag errors, config path problems) so it can be replayed into the
// main logger once that exists.
type BootstrapLogger struct {
	mu       sync.Mutex
	entries  []bootstrapEntry
	flushed  bool
	minLevel types.LogLevel
	stdout   io.Writer
	stderr   io.Writer
}

// NewBootstrapLogger creates a bootstrap logger with INFO as flush level.
func NewBootstrapLogger() *BootstrapLogger {
	return &BootstrapLogger{
		minLevel: types.LogLevelInfo,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// SetWriters replaces the console writers (tests).
func (b *BootstrapLogger) SetWriters(stdout, stderr io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stdout != nil {
		b.stdout = stdout
	}
	if stderr != nil {
		b.stderr = stderr
	}
}

// SetLevel updates the minimum level used at flush time.
func (b *BootstrapLogger) SetLevel(level types.LogLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minLevel = level
}

// Println prints a raw line (banners, help text).
func (b *BootstrapLogger) Println(message string) {
	b.mu.Lock()
	fmt.Fprintln(b.stdout, message)
	b.mu.Unlock()
	b.record(types.LogLevelInfo, message, true)
}

// Debug records a debug message without printing it.
func (b *BootstrapLogger) Debug(format string, args ...interface{}) {
	b.record(types.LogLevelDebug, fmt.Sprintf(format, args...), false)
}

// Info prints and records an informational message.
func (b *BootstrapLogger) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	b.mu.Lock()
	fmt.Fprintln(b.stdout, msg)
	b.mu.Unlock()
	b.record(types.LogLevelInfo, msg, false)
}

// Warning prints (stderr) and records a warning.
func (b *BootstrapLogger) Warning(format string, args ...interface{}) {
	b.printErr(types.LogLevelWarning, fmt.Sprintf(format, args...))
}

// Error prints (stderr) and records an error.
func (b *BootstrapLogger) Error(format string, args ...interface{}) {
	b.printErr(types.LogLevelError, fmt.Sprintf(format, args...))
}

func (b *BootstrapLogger) printErr(level types.LogLevel, msg string) {
	msg = strings.TrimSuffix(msg, "\n")
	b.mu.Lock()
	fmt.Fprintln(b.stderr, msg)
	b.mu.Unlock()
	b.record(level, msg, false)
}

func (b *BootstrapLogger) record(level types.LogLevel, message string, raw bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed {
		return
	}
	b.entries = append(b.entries, bootstrapEntry{level: level, message: message, raw: raw})
}

// Flush replays the recorded entries into logger (only the first time).
func (b *BootstrapLogger) Flush(logger *Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed || logger == nil {
		return
	}
	for _, entry := range b.entries {
		if entry.raw {
			logger.Debug("%s", entry.message)
			continue
		}
		if entry.level > b.minLevel {
			continue
		}
		switch entry.level {
		case types.LogLevelDebug:
			logger.Debug("%s", entry.message)
		case types.LogLevelWarning:
			logger.Warning("%s", entry.message)
		case types.LogLevelError:
			logger.Error("%s", entry.message)
		case types.LogLevelCritical:
			logger.Critical("%s", entry.message)
		default:
			logger.Info("%s", entry.message)
		}
	}
	b.flushed = true
	b.entries = nil
}
