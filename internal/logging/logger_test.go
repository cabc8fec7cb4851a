package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tis24dev/showsave/internal/types"
)

func TestNew(t *testing.T) {
	logger := New(types.LogLevelInfo, true)

	if logger.level != types.LogLevelInfo {
		t.Errorf("Expected level %v, got %v", types.LogLevelInfo, logger.level)
	}
	if !logger.useColor {
		t.Error("Expected useColor to be true")
	}
	if logger.output == nil {
		t.Error("Expected output to be set")
	}
}

func TestSetLevel(t *testing.T) {
	logger := New(types.LogLevelInfo, false)
	logger.SetLevel(types.LogLevelDebug)

	if logger.GetLevel() != types.LogLevelDebug {
		t.Errorf("Expected level %v, got %v", types.LogLevelDebug, logger.GetLevel())
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogLevelWarning, false)
	logger.SetOutput(&buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warning("warning message")
	logger.Error("error message")
	logger.Critical("critical message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below WARNING leaked: %q", output)
	}
	for _, want := range []string{"warning message", "error message", "critical message"} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in %q", want, output)
		}
	}
}

func TestLabelledLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogLevelInfo, false)
	logger.SetOutput(&buf)

	logger.Phase("Backing up %s", "MQ80")
	logger.Step("Planning")
	logger.Skip("heads.all")
	logger.Success("done")

	output := buf.String()
	for _, want := range []string{"PHASE    Backing up MQ80", "STEP     Planning", "SKIP     heads.all", "OK       done"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output %q", want, output)
		}
	}
}

func TestColorOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogLevelInfo, true)
	logger.SetOutput(&buf)

	logger.Info("colored")
	logger.Skip("skipped")

	output := buf.String()
	if !strings.Contains(output, colorGreen) {
		t.Error("expected green color code for INFO")
	}
	if !strings.Contains(output, colorMagenta) {
		t.Error("expected magenta color code for SKIP")
	}
	if !strings.Contains(output, colorReset) {
		t.Error("expected reset code")
	}
}

func TestNoColorOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogLevelInfo, false)
	logger.SetOutput(&buf)

	logger.Warning("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("unexpected ANSI codes in %q", buf.String())
	}
}

func TestLinesWritesOneEntryPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogLevelInfo, false)
	logger.SetOutput(&buf)

	logger.Lines(types.LogLevelWarning, []string{"first cause", "", "  ", "second cause\n"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "first cause") || !strings.HasSuffix(lines[1], "second cause") {
		t.Fatalf("unexpected lines %q", lines)
	}
	if w, _ := logger.Counts(); w != 2 {
		t.Fatalf("expected 2 warnings counted, got %d", w)
	}
}

func TestWarningAndErrorCounters(t *testing.T) {
	logger := New(types.LogLevelDebug, false)
	logger.SetOutput(&bytes.Buffer{})

	if logger.HasWarnings() || logger.HasErrors() {
		t.Fatal("fresh logger should have no warnings or errors")
	}
	logger.Warning("w")
	logger.Critical("c")
	logger.Error("e")

	if !logger.HasWarnings() || !logger.HasErrors() {
		t.Fatal("expected warnings and errors to be tracked")
	}
	warnings, errs := logger.Counts()
	if warnings != 1 || errs != 2 {
		t.Fatalf("Counts() = (%d, %d), want (1, 2)", warnings, errs)
	}
}

func TestFilteredMessagesAreNotCounted(t *testing.T) {
	logger := New(types.LogLevelCritical, false)
	logger.SetOutput(&bytes.Buffer{})
	logger.Warning("hidden")
	if logger.HasWarnings() {
		t.Fatal("filtered warning should not be counted")
	}
}

func TestDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(original) })

	var buf bytes.Buffer
	custom := New(types.LogLevelDebug, false)
	custom.SetOutput(&buf)
	SetDefaultLogger(custom)

	Debug("d %d", 1)
	Info("i")
	Warning("w")
	Error("e")

	for _, want := range []string{"d 1", "INFO", "WARNING", "ERROR"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %q", want, buf.String())
		}
	}
}

func TestSetOutputNilDefaultsToStdout(t *testing.T) {
	logger := New(types.LogLevelInfo, false)
	logger.SetOutput(nil)
	if logger.output != os.Stdout {
		t.Fatal("expected nil output to fall back to stdout")
	}

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	if logger.Output() != &buf {
		t.Fatal("Output should return the writer set last")
	}
}

func TestOpenAndCloseLogFile(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogLevelInfo, true)
	logger.SetOutput(&buf)

	path := filepath.Join(t.TempDir(), "showsave.log")
	if err := logger.OpenLogFile(path); err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	if logger.GetLogFilePath() != path {
		t.Fatalf("GetLogFilePath() = %q, want %q", logger.GetLogFilePath(), path)
	}

	logger.Info("mirrored line")
	if err := logger.CloseLogFile(); err != nil {
		t.Fatalf("CloseLogFile: %v", err)
	}
	if logger.GetLogFilePath() != "" {
		t.Fatal("expected empty path after close")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "mirrored line") {
		t.Fatalf("log file missing message: %q", content)
	}
	if strings.Contains(content, "\033[") {
		t.Fatalf("log file should not contain colors: %q", content)
	}
	if err := logger.CloseLogFile(); err != nil {
		t.Fatalf("second CloseLogFile should be a no-op: %v", err)
	}
}

func TestOpenLogFileInvalidPath(t *testing.T) {
	logger := New(types.LogLevelInfo, false)
	err := logger.OpenLogFile(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNilReceiverLabelledCalls(t *testing.T) {
	var logger *Logger
	logger.Phase("x")
	logger.Step("x")
	logger.Skip("x")
	logger.Success("x")
}
