package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorTextsAndUnwrap(t *testing.T) {
	err := newError(KindIOFailure, "open", "/x", fs.ErrPermission, "cannot open %s", "/x")
	texts := err.Texts()
	if len(texts) != 2 || texts[0] != "cannot open /x" || texts[1] != fs.ErrPermission.Error() {
		t.Fatalf("Texts = %v", texts)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatal("underlying error should be reachable")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestWithContextAndIsKind(t *testing.T) {
	base := newError(KindSourceMissing, "precheck", "/src", nil, "source /src does not exist")
	wrapped := WithContext(fmt.Errorf("run: %w", base), "Console desk failed")
	if wrapped.Kind != KindSourceMissing {
		t.Fatalf("Kind = %v", wrapped.Kind)
	}
	if got := Texts(wrapped); len(got) < 2 || got[0] != "Console desk failed" {
		t.Fatalf("Texts = %v", got)
	}
	if !IsKind(wrapped, KindSourceMissing) {
		t.Fatal("IsKind should match")
	}

	plain := WithContext(errors.New("boom"), "context")
	if plain.Kind != KindIOFailure {
		t.Fatalf("plain errors should become IO failures, got %v", plain.Kind)
	}
	if IsKind(errors.New("x"), KindIOFailure) {
		t.Fatal("IsKind should be false for foreign errors")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("/cfg", "line one", "line two")
	if err.Kind != KindConfigMissingOrInvalid {
		t.Fatalf("Kind = %v", err.Kind)
	}
	if got := Texts(err); len(got) != 2 || got[1] != "line two" {
		t.Fatalf("Texts = %v", got)
	}
}
