package orchestrator

import (
	"fmt"
	"testing"
	"time"
)

func TestLatestMessageKeepsNewestLine(t *testing.T) {
	var latest latestMessage
	if _, ok := latest.take(); ok {
		t.Fatal("empty buffer should have nothing to take")
	}

	for i := 0; i <= 5000; i++ {
		latest.set(fmt.Sprintf("Processing %d%%... Zipping show/f%d.all", i/50, i))
	}
	latest.set("   ")

	msg, ok := latest.take()
	if !ok || msg != "Processing 100%... Zipping show/f5000.all" {
		t.Fatalf("take = %q, %v", msg, ok)
	}
	if _, ok := latest.take(); ok {
		t.Fatal("a line must only be taken once")
	}
}

func TestLatestMessageSetNeverBlocks(t *testing.T) {
	var latest latestMessage
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100000; i++ {
			latest.set("Processing 1%... Zipping a.all")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reporting progress blocked without a reader")
	}
}
