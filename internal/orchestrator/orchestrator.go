// Package orchestrator runs the backup of configured systems: it plans each
// source tree, writes the archive and reports the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tis24dev/showsave/internal/backup"
	"github.com/tis24dev/showsave/internal/config"
	"github.com/tis24dev/showsave/internal/logging"
	"github.com/tis24dev/showsave/internal/metrics"
	"github.com/tis24dev/showsave/internal/safefs"
	"github.com/tis24dev/showsave/internal/types"
)

const planningMessage = "Calculating folders. Please wait..."

var upperCaser = cases.Upper(language.Und)

// Options tune one orchestrator instance.
type Options struct {
	DryRun     bool
	Recipients []age.Recipient
	Runner     TaskRunner
	Version    string
}

// Result is the outcome of one system backup.
type Result struct {
	System       backup.SystemDefinition
	ArchivePath  string
	ManifestPath string
	Stats        *backup.ArchiveStats
	ArchiveSize  int64
	Message      string
	Duration     time.Duration
	Err          error
}

// Succeeded reports whether the system was backed up.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Orchestrator coordinates planning and archiving for configured systems.
type Orchestrator struct {
	logger   *logging.Logger
	settings config.Settings
	planner  *backup.Planner
	archiver *backup.Archiver
	runner   TaskRunner
	clock    TimeProvider
	hostname func() (string, error)
	dryRun   bool
	version  string
}

// New creates an orchestrator for the loaded configuration.
func New(logger *logging.Logger, cfg *config.Config, opts Options) (*Orchestrator, error) {
	return NewWithDeps(defaultDeps(logger), cfg, opts)
}

// NewWithDeps creates an orchestrator with injected dependencies.
func NewWithDeps(deps Deps, cfg *config.Config, opts Options) (*Orchestrator, error) {
	deps = deps.withDefaults()
	if cfg == nil {
		cfg = &config.Config{}
	}
	settings := cfg.Settings

	archiverCfg := &backup.ArchiverConfig{
		CompressionLevel: settings.CompressionLevel,
		DryRun:           opts.DryRun,
		KeepPartial:      settings.KeepPartialArchives,
		EncryptArchive:   settings.Encryption.Enabled,
		AgeRecipients:    opts.Recipients,
	}
	if err := archiverCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid archive settings: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = NewCLIWorkflowUI(nil, nil, nil, deps.Logger)
	}

	return &Orchestrator{
		logger:   deps.Logger,
		settings: settings,
		planner:  backup.NewPlanner(deps.Logger, settings.PathTimeout()),
		archiver: backup.NewArchiver(deps.Logger, archiverCfg),
		runner:   runner,
		clock:    deps.Time,
		hostname: deps.Hostname,
		dryRun:   opts.DryRun,
		version:  opts.Version,
	}, nil
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.clock != nil {
		return o.clock.Now()
	}
	return time.Now()
}

// ArchivePath returns where a backup of system started at t is written.
func (o *Orchestrator) ArchivePath(system backup.SystemDefinition, t time.Time) string {
	return filepath.Join(system.DestinationRoot, backup.ArchiveName(system.Name, t, o.archiver.Extension()))
}

// Backup archives one system. Failures are returned as *backup.Error carrying
// the system name as first line; a cancelled context is returned as is.
func (o *Orchestrator) Backup(ctx context.Context, system backup.SystemDefinition) (*Result, error) {
	start := o.now()
	title := fmt.Sprintf("Backing up %s", upperCaser.String(system.Name))
	o.logger.Phase("%s", title)

	result := &Result{
		System:      system,
		ArchivePath: o.ArchivePath(system, start),
	}
	o.logger.Step("Source: %s", system.SourceRoot)
	o.logger.Step("Archive: %s", result.ArchivePath)

	err := o.runner.RunTask(ctx, title, planningMessage, func(ctx context.Context, report ProgressReporter) error {
		entries, err := o.planner.Plan(ctx, system.SourceRoot, system.Requests)
		if err != nil {
			return err
		}
		o.logger.Debug("Planned %d entries for %s", len(entries), system.Name)
		o.checkFreeSpace(ctx, system.DestinationRoot, entries)

		stats, err := o.archiver.CreateArchive(ctx, system.SourceRoot, entries, system.Requests, result.ArchivePath, func(p backup.Progress) {
			report(fmt.Sprintf("Processing %d%%... %s", p.Percent, p.Task))
		})
		if err != nil {
			return err
		}
		result.Stats = stats
		return nil
	})
	result.Duration = o.now().Sub(start)
	if err != nil {
		return nil, o.wrapFailure(system, err)
	}

	if o.dryRun {
		result.Message = fmt.Sprintf("[DRY RUN] %s %s would be backed up to %s (%d files, %d folders, %d skipped)",
			system.Kind.Label(), system.Name, result.ArchivePath, result.Stats.Files, result.Stats.Dirs, result.Stats.Skipped)
		o.logger.Info("%s", result.Message)
		return result, nil
	}

	if size, err := o.archiver.GetArchiveSize(result.ArchivePath); err == nil {
		result.ArchiveSize = size
	}

	if o.settings.ShouldVerify() {
		o.logger.Step("Verifying %s", filepath.Base(result.ArchivePath))
		if err := o.archiver.VerifyArchive(ctx, result.ArchivePath, result.Stats); err != nil {
			return nil, o.wrapFailure(system, err)
		}
	}

	if o.settings.WriteManifest {
		path, err := o.writeManifest(ctx, system, result)
		if err != nil {
			return nil, o.wrapFailure(system, err)
		}
		result.ManifestPath = path
	}

	result.Message = fmt.Sprintf("%s %s backed up to %s", system.Kind.Label(), system.Name, result.ArchivePath)
	o.logger.Success("%s (%d files, %d folders, %s in %s)", result.Message,
		result.Stats.Files, result.Stats.Dirs, backup.FormatBytes(result.ArchiveSize), backup.FormatDuration(result.Duration))
	return result, nil
}

func (o *Orchestrator) wrapFailure(system backup.SystemDefinition, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return backup.WithContext(err, fmt.Sprintf("Could not backup %s", system.Name))
}

// BackupAll backs up every system in order. A failed system never stops the
// others; only a cancelled context does.
func (o *Orchestrator) BackupAll(ctx context.Context, systems []backup.SystemDefinition) []Result {
	runStart := o.now()
	results := make([]Result, 0, len(systems))
	for _, system := range systems {
		if ctx.Err() != nil {
			break
		}
		res, err := o.Backup(ctx, system)
		if errors.Is(err, context.Canceled) {
			results = append(results, Result{System: system, Err: err})
			o.logger.Warning("Backup of %s cancelled", system.Name)
			break
		}
		if err != nil {
			o.logger.Lines(types.LogLevelError, backup.Texts(err))
			results = append(results, Result{System: system, Err: err})
			continue
		}
		results = append(results, *res)
	}
	if ctx.Err() != nil {
		o.logger.Warning("Backup interrupted after %d of %d system(s)", len(results), len(systems))
	}
	o.exportMetrics(runStart, results, ExitCodeFor(ctx, results))
	return results
}

// ExitCodeFor maps a run outcome to the process exit code.
func ExitCodeFor(ctx context.Context, results []Result) types.ExitCode {
	if ctx.Err() != nil {
		return types.ExitInterrupted
	}
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			return types.ExitInterrupted
		}
	}
	for _, r := range results {
		if r.Err != nil {
			return types.ExitBackupError
		}
	}
	return types.ExitSuccess
}

// Summary renders the outcome of a run as display lines.
func Summary(results []Result) (title string, lines []string) {
	ok := 0
	for _, r := range results {
		if r.Succeeded() {
			ok++
			lines = append(lines, r.Message)
			continue
		}
		lines = append(lines, backup.Texts(r.Err)...)
	}
	switch {
	case len(results) == 0:
		title = "Nothing was backed up"
	case ok == len(results):
		title = fmt.Sprintf("%d of %d system(s) backed up", ok, len(results))
	default:
		title = fmt.Sprintf("%d of %d system(s) backed up, %d failed", ok, len(results), len(results)-ok)
	}
	return title, lines
}

// ReportResults shows the run summary through ui.
func ReportResults(ctx context.Context, ui BackupWorkflowUI, results []Result) error {
	title, lines := Summary(results)
	message := strings.Join(lines, "\n")
	for _, r := range results {
		if !r.Succeeded() {
			return ui.ShowError(ctx, title, message)
		}
	}
	return ui.ShowMessage(ctx, title, message)
}

func (o *Orchestrator) checkFreeSpace(ctx context.Context, destRoot string, entries []backup.TraversalEntry) {
	var planned int64
	for _, e := range entries {
		if e.IsFile {
			planned += e.Size
		}
	}
	dir := nearestExistingDir(destRoot)
	free, err := safefs.FreeBytes(ctx, dir, o.settings.PathTimeout())
	if err != nil {
		o.logger.Debug("Free space check skipped for %s: %v", dir, err)
		return
	}
	if uint64(planned) > free {
		o.logger.Warning("Destination %s has %s free, the sources hold %s before compression",
			dir, backup.FormatBytes(int64(free)), backup.FormatBytes(planned))
	}
}

func nearestExistingDir(path string) string {
	dir := filepath.Clean(path)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func (o *Orchestrator) writeManifest(ctx context.Context, system backup.SystemDefinition, result *Result) (string, error) {
	sum, err := backup.GenerateChecksum(ctx, o.logger, result.ArchivePath)
	if err != nil {
		return "", err
	}
	host, _ := o.hostname()
	manifest := &backup.Manifest{
		RunID:            backup.NewRunID(),
		SystemName:       system.Name,
		SystemKind:       system.Kind.String(),
		SourceRoot:       system.SourceRoot,
		ArchivePath:      result.ArchivePath,
		ArchiveSize:      result.ArchiveSize,
		SHA256:           sum,
		CreatedAt:        o.now().UTC(),
		CompressionLevel: o.archiver.CompressionLevel(),
		Encrypted:        o.archiver.Encrypted(),
		Files:            result.Stats.Files,
		Dirs:             result.Stats.Dirs,
		Skipped:          result.Stats.Skipped,
		Bytes:            result.Stats.Bytes,
		Hostname:         host,
		ToolVersion:      o.version,
	}
	path := backup.ManifestPath(result.ArchivePath)
	if err := backup.CreateManifest(o.logger, manifest, path); err != nil {
		return "", err
	}
	o.logger.Debug("Manifest %s written (run %s)", path, manifest.RunID)
	if err := o.checkManifest(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// checkManifest reloads a written manifest and re-hashes the archive it
// names.
func (o *Orchestrator) checkManifest(ctx context.Context, manifestPath string) error {
	manifest, err := backup.LoadManifest(manifestPath)
	if err != nil {
		return backup.WithContext(err, fmt.Sprintf("Manifest %s is unreadable", manifestPath))
	}
	ok, err := backup.VerifyChecksum(ctx, o.logger, manifest.ArchivePath, manifest.SHA256)
	if err != nil {
		return err
	}
	if !ok {
		return &backup.Error{
			Kind:  backup.KindIOFailure,
			Op:    "checksum",
			Path:  manifest.ArchivePath,
			Lines: []string{fmt.Sprintf("Archive %s does not match the checksum in %s", manifest.ArchivePath, manifestPath)},
		}
	}
	return nil
}

func (o *Orchestrator) exportMetrics(start time.Time, results []Result, code types.ExitCode) {
	if o.settings.MetricsDir == "" || o.dryRun {
		return
	}
	warnings, errs := o.logger.Counts()
	run := &metrics.RunMetrics{
		Version:      o.version,
		StartTime:    start,
		EndTime:      o.now(),
		ExitCode:     code.Int(),
		WarningCount: warnings,
		ErrorCount:   errs,
	}
	for _, r := range results {
		sm := metrics.SystemMetrics{
			Name:        r.System.Name,
			Kind:        r.System.Kind.String(),
			Success:     r.Succeeded(),
			Duration:    r.Duration,
			ArchiveSize: r.ArchiveSize,
			FinishedAt:  run.EndTime,
		}
		if r.Stats != nil {
			sm.Files = r.Stats.Files
			sm.Dirs = r.Stats.Dirs
			sm.Skipped = r.Stats.Skipped
			sm.Bytes = r.Stats.Bytes
		}
		run.Systems = append(run.Systems, sm)
	}
	exporter := metrics.NewPrometheusExporter(o.settings.MetricsDir, o.logger)
	if err := exporter.Export(run); err != nil {
		o.logger.Warning("Failed to export Prometheus metrics: %v", err)
	}
}
