package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tis24dev/showsave/internal/logging"
)

// ManifestSuffix is appended to an archive path to name its manifest.
const ManifestSuffix = ".manifest.json"

// Manifest describes one written archive and its checksum.
type Manifest struct {
	RunID            string    `json:"run_id"`
	SystemName       string    `json:"system_name"`
	SystemKind       string    `json:"system_kind"`
	SourceRoot       string    `json:"source_root"`
	ArchivePath      string    `json:"archive_path"`
	ArchiveSize      int64     `json:"archive_size"`
	SHA256           string    `json:"sha256"`
	CreatedAt        time.Time `json:"created_at"`
	CompressionLevel int       `json:"compression_level"`
	Encrypted        bool      `json:"encrypted"`
	Files            int       `json:"files"`
	Dirs             int       `json:"dirs"`
	Skipped          int       `json:"skipped"`
	Bytes            int64     `json:"bytes"`
	Hostname         string    `json:"hostname,omitempty"`
	ToolVersion      string    `json:"tool_version,omitempty"`
}

// NewRunID returns a random identifier for one backup run.
func NewRunID() string {
	return uuid.NewString()
}

// ManifestPath returns the manifest location for an archive.
func ManifestPath(archivePath string) string {
	return archivePath + ManifestSuffix
}

// GenerateChecksum calculates SHA256 checksum of a file
func GenerateChecksum(ctx context.Context, logger *logging.Logger, filePath string) (string, error) {
	logger.Debug("Generating SHA256 checksum for: %s", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	buf := make([]byte, copyBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := file.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	logger.Debug("Generated checksum: %s", checksum)
	return checksum, nil
}

// CreateManifest writes manifest as indented JSON. An existing file is never
// overwritten.
func CreateManifest(logger *logging.Logger, manifest *Manifest, outputPath string) error {
	logger.Debug("Creating manifest file: %s", outputPath)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close manifest file: %w", err)
	}
	return nil
}

// VerifyChecksum verifies a file against an expected checksum
func VerifyChecksum(ctx context.Context, logger *logging.Logger, filePath, expectedChecksum string) (bool, error) {
	actualChecksum, err := GenerateChecksum(ctx, logger, filePath)
	if err != nil {
		return false, fmt.Errorf("failed to generate checksum: %w", err)
	}
	if actualChecksum != expectedChecksum {
		logger.Warning("Checksum mismatch! Expected: %s, Got: %s", expectedChecksum, actualChecksum)
		return false, nil
	}
	logger.Debug("Checksum verification passed")
	return true, nil
}

// LoadManifest loads a manifest from a JSON file
func LoadManifest(manifestPath string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}
