package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tis24dev/showsave/internal/logging"
	"github.com/tis24dev/showsave/internal/types"
)

func TestGenerateAndVerifyChecksum(t *testing.T) {
	logger := logging.New(types.LogLevelDebug, false)
	ctx := context.Background()

	filePath := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(filePath, []byte("abc"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	checksum, err := GenerateChecksum(ctx, logger, filePath)
	if err != nil {
		t.Fatalf("GenerateChecksum failed: %v", err)
	}
	const abcSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if checksum != abcSHA256 {
		t.Fatalf("checksum = %s", checksum)
	}

	ok, err := VerifyChecksum(ctx, logger, filePath, checksum)
	if err != nil || !ok {
		t.Fatalf("expected checksum verification to succeed (ok=%v err=%v)", ok, err)
	}

	if err := os.WriteFile(filePath, []byte("modified"), 0o644); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}
	ok, err = VerifyChecksum(ctx, logger, filePath, checksum)
	if err != nil {
		t.Fatalf("VerifyChecksum after modification failed: %v", err)
	}
	if ok {
		t.Fatal("expected checksum verification to fail after modification")
	}
}

func TestGenerateChecksumCancelled(t *testing.T) {
	logger := logging.New(types.LogLevelError, false)
	filePath := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(filePath, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := GenerateChecksum(ctx, logger, filePath); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestCreateAndLoadManifest(t *testing.T) {
	logger := logging.New(types.LogLevelInfo, false)
	archive := filepath.Join(t.TempDir(), "desk_backup_2024_01_02__03_04_05.zip")
	manifestPath := ManifestPath(archive)
	if manifestPath != archive+".manifest.json" {
		t.Fatalf("ManifestPath = %s", manifestPath)
	}

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	manifest := &Manifest{
		RunID:            NewRunID(),
		SystemName:       "desk",
		SystemKind:       "console",
		ArchivePath:      archive,
		ArchiveSize:      42,
		SHA256:           "deadbeef",
		CreatedAt:        created,
		CompressionLevel: 6,
		Files:            2,
		Dirs:             1,
		Skipped:          1,
	}
	if err := CreateManifest(logger, manifest, manifestPath); err != nil {
		t.Fatalf("CreateManifest failed: %v", err)
	}

	loaded, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if loaded.SystemName != "desk" || loaded.SHA256 != "deadbeef" || loaded.Files != 2 || !loaded.CreatedAt.Equal(created) {
		t.Fatalf("unexpected manifest: %+v", loaded)
	}
	if _, err := uuid.Parse(loaded.RunID); err != nil {
		t.Fatalf("run id %q is not a UUID: %v", loaded.RunID, err)
	}

	if err := CreateManifest(logger, manifest, manifestPath); err == nil {
		t.Fatal("expected an error when the manifest already exists")
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error")
	}
}
