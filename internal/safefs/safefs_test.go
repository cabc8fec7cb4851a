package safefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestStat_ReturnsTimeoutError(t *testing.T) {
	prev := osStat
	defer func() { osStat = prev }()

	osStat = func(string) (os.FileInfo, error) {
		select {}
	}

	start := time.Now()
	_, err := Stat(context.Background(), "/mnt/console", 25*time.Millisecond)
	if err == nil || !errors.Is(err, ErrTimeout) {
		t.Fatalf("Stat err = %v; want timeout", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) || te.Op != "stat" || te.Path != "/mnt/console" {
		t.Fatalf("unexpected timeout error: %#v", err)
	}
	if time.Since(start) > 250*time.Millisecond {
		t.Fatalf("Stat took too long: %s", time.Since(start))
	}
}

func TestReadDir_ReturnsTimeoutError(t *testing.T) {
	prev := osReadDir
	defer func() { osReadDir = prev }()

	osReadDir = func(string) ([]os.DirEntry, error) {
		select {}
	}

	_, err := ReadDir(context.Background(), "/mnt/console", 25*time.Millisecond)
	if err == nil || !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadDir err = %v; want timeout", err)
	}
}

func TestFreeBytes_ReturnsTimeoutError(t *testing.T) {
	prev := diskFree
	defer func() { diskFree = prev }()

	diskFree = func(string) (uint64, error) {
		select {}
	}

	_, err := FreeBytes(context.Background(), "/mnt/console", 25*time.Millisecond)
	if err == nil || !errors.Is(err, ErrTimeout) {
		t.Fatalf("FreeBytes err = %v; want timeout", err)
	}
}

func TestReadDir_ListsEntries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.all", "a.all"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadDir(context.Background(), dir, time.Second)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) != 3 || names[0] != "a.all" || names[1] != "b.all" || names[2] != "logs" {
		t.Fatalf("names = %v", names)
	}

	if _, err := ReadDir(context.Background(), filepath.Join(dir, "missing"), time.Second); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing dir err = %v; want os.ErrNotExist", err)
	}
}

func TestFreeBytes_RealDirectory(t *testing.T) {
	free, err := FreeBytes(context.Background(), t.TempDir(), time.Second)
	if err != nil {
		t.Fatalf("FreeBytes error: %v", err)
	}
	if free == 0 {
		t.Fatal("expected some free space in the temp directory")
	}
}

func TestStat_NoTimeoutRunsInline(t *testing.T) {
	dir := t.TempDir()
	info, err := Stat(context.Background(), dir, 0)
	if err != nil || !info.IsDir() {
		t.Fatalf("Stat(%s) = %v, %v", dir, info, err)
	}
}

func TestStat_PropagatesContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Stat(ctx, "/does/not/matter", 50*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Stat err = %v; want context.Canceled", err)
	}
}
