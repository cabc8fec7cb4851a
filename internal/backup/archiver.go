package backup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"golang.org/x/text/unicode/norm"

	"github.com/tis24dev/showsave/internal/logging"
)

const (
	// ArchiveExtension is the extension of plain archives.
	ArchiveExtension = ".zip"
	// EncryptedExtension is appended to ArchiveExtension for age-encrypted archives.
	EncryptedExtension = ".age"

	// DefaultCompressionLevel is the deflate level used when none is configured.
	DefaultCompressionLevel = 6

	copyBufferSize = 32 * 1024
	finalTask      = "All entries zipped..."
)

// Progress is one progress notification from CreateArchive.
type Progress struct {
	Task       string
	Percent    int
	DoneBytes  int64
	TotalBytes int64
	Entry      int
	Entries    int
}

// ProgressFunc receives progress notifications. It must not block.
type ProgressFunc func(Progress)

// ArchiveStats summarizes a written archive.
type ArchiveStats struct {
	Files    int
	Dirs     int
	Skipped  int
	Bytes    int64
	Entries  int
	Duration time.Duration
}

// Members is the number of members in the archive.
func (s *ArchiveStats) Members() int {
	if s == nil {
		return 0
	}
	return s.Files + s.Dirs
}

// ArchiverConfig holds configuration for archive creation
type ArchiverConfig struct {
	CompressionLevel int // 1-9, 0 selects DefaultCompressionLevel
	DryRun           bool
	KeepPartial      bool
	EncryptArchive   bool
	AgeRecipients    []age.Recipient
}

// Validate checks if the archiver configuration is valid
func (c *ArchiverConfig) Validate() error {
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level must be 1-9, got %d", c.CompressionLevel)
	}
	if c.EncryptArchive && len(c.AgeRecipients) == 0 {
		return fmt.Errorf("encryption enabled but no AGE recipients configured")
	}
	return nil
}

// Archiver writes traversal entries into a deflate-compressed zip archive.
type Archiver struct {
	logger           *logging.Logger
	compressionLevel int
	dryRun           bool
	keepPartial      bool
	encryptArchive   bool
	ageRecipients    []age.Recipient
}

// NewArchiver creates a new archiver
func NewArchiver(logger *logging.Logger, config *ArchiverConfig) *Archiver {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	if config == nil {
		config = &ArchiverConfig{}
	}
	level := config.CompressionLevel
	if level == 0 {
		level = DefaultCompressionLevel
	}
	return &Archiver{
		logger:           logger,
		compressionLevel: level,
		dryRun:           config.DryRun,
		keepPartial:      config.KeepPartial,
		encryptArchive:   config.EncryptArchive,
		ageRecipients:    config.AgeRecipients,
	}
}

// Extension returns the file extension every destination must carry.
func (a *Archiver) Extension() string {
	if a.encryptArchive {
		return ArchiveExtension + EncryptedExtension
	}
	return ArchiveExtension
}

// CompressionLevel returns the effective deflate level.
func (a *Archiver) CompressionLevel() int {
	return a.compressionLevel
}

// Encrypted reports whether archives are written through age.
func (a *Archiver) Encrypted() bool {
	return a.encryptArchive
}

func (a *Archiver) wrapEncryptionWriter(base io.Writer) (io.Writer, func() error, error) {
	if !a.encryptArchive {
		return base, func() error { return nil }, nil
	}
	if len(a.ageRecipients) == 0 {
		return nil, nil, fmt.Errorf("encryption enabled but no AGE recipients configured")
	}
	writer, err := age.Encrypt(base, a.ageRecipients...)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize age encryption: %w", err)
	}
	a.logger.Debug("Encrypting archive via age (streaming)")
	return writer, writer.Close, nil
}

// CreateArchive writes entries found under sourceRoot into destination.
//
// Preconditions are checked in order before anything is written: the
// destination must not exist, must end with Extension(), and the source root
// must exist. The destination parent directory is then created if needed.
// Excluded files are skipped and counted; any other failure aborts the
// archive. Unless KeepPartial is set, a destination created by this call is
// removed when the call fails.
func (a *Archiver) CreateArchive(ctx context.Context, sourceRoot string, entries []TraversalEntry, requests []BackupRequest, destination string, progress ProgressFunc) (stats *ArchiveStats, err error) {
	done := logging.DebugStart(a.logger, "create archive", "%s -> %s", sourceRoot, destination)
	defer func() { done(err) }()

	if err := a.checkPreconditions(sourceRoot, destination); err != nil {
		return nil, err
	}

	rules := make([][]ExclusionRule, len(requests))
	for i, req := range requests {
		rules[i] = CompileExclusionRules(req.ExcludedFiles)
	}
	excluded := func(e TraversalEntry) bool {
		if !e.IsFile || e.Request < 0 || e.Request >= len(rules) {
			return false
		}
		return IsExcluded(e.Path, rules[e.Request])
	}
	entries = a.uniqueMembers(entries, excluded)

	var total int64
	for _, e := range entries {
		if e.IsFile && !excluded(e) {
			total += e.Size
		}
	}

	if a.dryRun {
		a.logger.Info("[DRY RUN] Would create archive: %s", destination)
		return a.dryRunStats(entries, excluded), nil
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return nil, newError(KindIOFailure, "mkdir", filepath.Dir(destination), err, "cannot create destination directory %s", filepath.Dir(destination))
	}

	outFile, err := os.OpenFile(destination, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, newError(KindDestinationConflict, "create", destination, nil, "destination %s already exists", destination)
		}
		return nil, newError(KindIOFailure, "create", destination, err, "cannot create %s", destination)
	}
	defer func() {
		if err == nil || a.keepPartial {
			return
		}
		if rmErr := os.Remove(destination); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			a.logger.Warning("Failed to remove partial archive %s: %v", destination, rmErr)
			return
		}
		a.logger.Debug("Removed partial archive %s", destination)
	}()

	start := time.Now()
	stats, err = a.writeArchive(ctx, outFile, entries, excluded, total, progress)
	if cerr := outFile.Close(); cerr != nil && err == nil {
		err = newError(KindIOFailure, "close", destination, cerr, "cannot close %s", destination)
	}
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

func (a *Archiver) checkPreconditions(sourceRoot, destination string) error {
	if _, err := os.Lstat(destination); err == nil {
		return newError(KindDestinationConflict, "precheck", destination, nil, "destination %s already exists", destination)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return newError(KindIOFailure, "precheck", destination, err, "cannot inspect destination %s", destination)
	}

	if !strings.HasSuffix(destination, a.Extension()) {
		return newError(KindDestinationConflict, "precheck", destination, nil, "destination %s must have the %s extension", destination, a.Extension())
	}

	info, err := os.Stat(sourceRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(KindSourceMissing, "precheck", sourceRoot, nil, "source %s does not exist", sourceRoot)
		}
		return newError(KindIOFailure, "precheck", sourceRoot, err, "cannot access source %s", sourceRoot)
	}
	if !info.IsDir() {
		return newError(KindSourceMissing, "precheck", sourceRoot, nil, "source %s is not a directory", sourceRoot)
	}
	return nil
}

func (a *Archiver) dryRunStats(entries []TraversalEntry, excluded func(TraversalEntry) bool) *ArchiveStats {
	stats := &ArchiveStats{Entries: len(entries)}
	for _, e := range entries {
		switch {
		case !e.IsFile:
			stats.Dirs++
		case excluded(e):
			stats.Skipped++
		default:
			stats.Files++
			stats.Bytes += e.Size
		}
	}
	return stats
}

func (a *Archiver) writeArchive(ctx context.Context, out io.Writer, entries []TraversalEntry, excluded func(TraversalEntry) bool, total int64, progress ProgressFunc) (stats *ArchiveStats, err error) {
	buffered := bufio.NewWriterSize(out, copyBufferSize)

	writer, finalizeEncryption, err := a.wrapEncryptionWriter(buffered)
	if err != nil {
		return nil, newError(KindIOFailure, "encrypt", "", err, "cannot start archive encryption")
	}

	zw := zip.NewWriter(writer)
	level := a.compressionLevel
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	stats = &ArchiveStats{Entries: len(entries)}
	buf := make([]byte, copyBufferSize)
	var doneBytes int64

	report := func(idx int, task string) {
		if progress == nil {
			return
		}
		progress(Progress{
			Task:       task,
			Percent:    percent(doneBytes, total),
			DoneBytes:  doneBytes,
			TotalBytes: total,
			Entry:      idx,
			Entries:    len(entries),
		})
	}

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := memberName(e.RelPath, !e.IsFile)
		if name == "" || name == "/" {
			return nil, newError(KindPathComputation, "member", e.Path, nil, "%s has no archive name", e.Path)
		}

		switch {
		case !e.IsFile:
			if err := a.addDirectory(zw, e.Path, name); err != nil {
				return nil, err
			}
			stats.Dirs++
			report(i+1, "Adding "+name)
		case excluded(e):
			stats.Skipped++
			a.logger.Debug("Excluded %s", e.Path)
			report(i+1, "Skipping "+name)
		default:
			n, err := a.addFile(zw, e.Path, name, buf)
			if err != nil {
				return nil, err
			}
			stats.Files++
			stats.Bytes += n
			doneBytes += n
			report(i+1, "Zipping "+name)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, newError(KindIOFailure, "finalize", "", err, "cannot finalize archive")
	}
	if err := finalizeEncryption(); err != nil {
		return nil, newError(KindIOFailure, "finalize", "", err, "cannot finalize encrypted archive")
	}
	if err := buffered.Flush(); err != nil {
		return nil, newError(KindIOFailure, "flush", "", err, "cannot flush archive")
	}

	doneBytes = total
	report(len(entries), finalTask)
	return stats, nil
}

func (a *Archiver) addDirectory(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return newError(KindIOFailure, "stat", path, err, "cannot inspect %s", path)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return newError(KindIOFailure, "header", path, err, "cannot build archive header for %s", path)
	}
	header.Name = name
	header.Method = zip.Store
	if _, err := zw.CreateHeader(header); err != nil {
		return newError(KindIOFailure, "member", path, err, "cannot add directory %s", name)
	}
	return nil
}

func (a *Archiver) addFile(zw *zip.Writer, path, name string, buf []byte) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, newError(KindIOFailure, "open", path, err, "cannot open %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, newError(KindIOFailure, "stat", path, err, "cannot inspect %s", path)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, newError(KindIOFailure, "header", path, err, "cannot build archive header for %s", path)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, newError(KindIOFailure, "member", path, err, "cannot add %s", name)
	}
	n, err := io.CopyBuffer(w, file, buf)
	clear(buf)
	if err != nil {
		return n, newError(KindIOFailure, "copy", path, err, "cannot write %s into archive", name)
	}
	a.logger.Debug("Added file to archive: %s (%s)", name, FormatBytes(n))
	return n, nil
}

// uniqueMembers drops entries whose member name an earlier, archived entry
// already claimed, so overlapping requests write each member once. Excluded
// entries never claim a name.
func (a *Archiver) uniqueMembers(entries []TraversalEntry, excluded func(TraversalEntry) bool) []TraversalEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]TraversalEntry, 0, len(entries))
	for _, e := range entries {
		name := memberName(e.RelPath, !e.IsFile)
		if _, dup := seen[name]; dup {
			a.logger.Debug("%s is already in the archive, skipping the repeat", name)
			continue
		}
		if !excluded(e) {
			seen[name] = struct{}{}
		}
		out = append(out, e)
	}
	return out
}

// memberName converts a root-relative path to a zip member name: forward
// slashes, NFC normalized, directories ending in "/".
func memberName(rel string, dir bool) string {
	name := norm.NFC.String(filepath.ToSlash(rel))
	name = strings.TrimLeft(name, "/")
	if dir && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return name
}

func percent(done, total int64) int {
	if total <= 0 {
		total = 1
	}
	p := int(done * 100 / total)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// VerifyArchive re-reads a written archive. Plain archives are opened and every
// member is read so CRC checks run; when expected is non-nil the member count
// must match. Encrypted archives only get existence and size checks.
func (a *Archiver) VerifyArchive(ctx context.Context, archivePath string, expected *ArchiveStats) error {
	a.logger.Debug("Verifying archive: %s", archivePath)

	if a.dryRun {
		a.logger.Info("[DRY RUN] Would verify archive: %s", archivePath)
		return nil
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("archive not found: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("archive is empty")
	}
	a.logger.Debug("Archive size: %s", FormatBytes(info.Size()))

	if a.encryptArchive {
		a.logger.Debug("Archive content verification skipped (encrypted archive)")
		return nil
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	buf := make([]byte, copyBufferSize)
	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := verifyMember(f, buf); err != nil {
			return err
		}
	}

	if expected != nil && len(reader.File) != expected.Members() {
		return fmt.Errorf("archive has %d members, expected %d", len(reader.File), expected.Members())
	}
	return nil
}

func verifyMember(f *zip.File, buf []byte) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer rc.Close()
	if _, err := io.CopyBuffer(io.Discard, rc, buf); err != nil {
		return fmt.Errorf("read member %s: %w", f.Name, err)
	}
	return nil
}

// GetArchiveSize returns the size of the archive file
func (a *Archiver) GetArchiveSize(archivePath string) (int64, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FormatDuration formats a duration in human-readable format
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// FormatBytes formats bytes in human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
