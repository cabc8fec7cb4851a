package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tis24dev/showsave/internal/types"
)

func TestBootstrapLoggerPrintsAndFlushes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	b := NewBootstrapLogger()
	b.SetWriters(&stdout, &stderr)

	b.Info("loading %s", "config.json")
	b.Warning("careful")
	b.Error("broken")
	b.Debug("hidden detail")

	if !strings.Contains(stdout.String(), "loading config.json") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "careful") || !strings.Contains(stderr.String(), "broken") {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if strings.Contains(stdout.String()+stderr.String(), "hidden detail") {
		t.Fatal("debug messages must not be printed")
	}

	var out bytes.Buffer
	logger := New(types.LogLevelDebug, false)
	logger.SetOutput(&out)
	b.Flush(logger)

	flushed := out.String()
	for _, want := range []string{"loading config.json", "careful", "broken"} {
		if !strings.Contains(flushed, want) {
			t.Errorf("flushed output missing %q: %q", want, flushed)
		}
	}
	if strings.Contains(flushed, "hidden detail") {
		t.Error("debug entry should be filtered by the INFO flush level")
	}

	out.Reset()
	b.Flush(logger)
	if out.Len() != 0 {
		t.Fatal("second flush must be a no-op")
	}
}

func TestBootstrapLoggerFlushLevel(t *testing.T) {
	b := NewBootstrapLogger()
	b.SetWriters(&bytes.Buffer{}, &bytes.Buffer{})
	b.SetLevel(types.LogLevelDebug)
	b.Debug("now visible")

	var out bytes.Buffer
	logger := New(types.LogLevelDebug, false)
	logger.SetOutput(&out)
	b.Flush(logger)

	if !strings.Contains(out.String(), "now visible") {
		t.Fatalf("expected debug entry after lowering flush level: %q", out.String())
	}
}
