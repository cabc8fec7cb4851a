package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tis24dev/showsave/internal/logging"
)

// FileName is the textfile written into the node_exporter directory.
const FileName = "showsave.prom"

// SystemMetrics is the outcome of one system backup.
type SystemMetrics struct {
	Name        string
	Kind        string
	Success     bool
	Duration    time.Duration
	Files       int
	Dirs        int
	Skipped     int
	Bytes       int64
	ArchiveSize int64
	FinishedAt  time.Time
}

// RunMetrics summarizes a whole showsave run.
type RunMetrics struct {
	Version      string
	StartTime    time.Time
	EndTime      time.Time
	ExitCode     int
	WarningCount int64
	ErrorCount   int64
	Systems      []SystemMetrics
}

// PrometheusExporter writes run metrics in Prometheus textfile format for node_exporter.
type PrometheusExporter struct {
	textfileDir string
	logger      *logging.Logger
}

// NewPrometheusExporter creates a new PrometheusExporter using the provided directory.
func NewPrometheusExporter(textfileDir string, logger *logging.Logger) *PrometheusExporter {
	return &PrometheusExporter{
		textfileDir: strings.TrimRight(textfileDir, "/"),
		logger:      logger,
	}
}

// Path returns the final metrics file path.
func (pe *PrometheusExporter) Path() string {
	return filepath.Join(pe.textfileDir, FileName)
}

// Export writes m to showsave.prom. The file is written to a temporary name
// and renamed so node_exporter never reads a partial file.
func (pe *PrometheusExporter) Export(m *RunMetrics) error {
	if pe == nil || m == nil {
		return nil
	}
	if pe.textfileDir == "" {
		return fmt.Errorf("metrics textfile directory is empty")
	}
	if err := os.MkdirAll(pe.textfileDir, 0o755); err != nil {
		return fmt.Errorf("create metrics directory %s: %w", pe.textfileDir, err)
	}

	finalPath := pe.Path()
	tmpPath := finalPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create metrics file %s: %w", tmpPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writeRunMetrics(w, m)
	writeSystemMetrics(w, m.Systems)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write metrics file %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync metrics file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename metrics file to %s: %w", finalPath, err)
	}

	if pe.logger != nil {
		pe.logger.Debug("Prometheus metrics exported to %s", finalPath)
	}
	return nil
}

func header(w *bufio.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", name)
}

func writeRunMetrics(w *bufio.Writer, m *RunMetrics) {
	failed := 0
	for _, s := range m.Systems {
		if !s.Success {
			failed++
		}
	}

	header(w, "showsave_run_start_time_seconds", "Unix timestamp of run start")
	fmt.Fprintf(w, "showsave_run_start_time_seconds %d\n", m.StartTime.Unix())
	header(w, "showsave_run_end_time_seconds", "Unix timestamp of run end")
	fmt.Fprintf(w, "showsave_run_end_time_seconds %d\n", m.EndTime.Unix())
	header(w, "showsave_run_duration_seconds", "Duration of the last run in seconds")
	fmt.Fprintf(w, "showsave_run_duration_seconds %.2f\n", m.EndTime.Sub(m.StartTime).Seconds())
	header(w, "showsave_run_exit_code", "Exit code of the last run")
	fmt.Fprintf(w, "showsave_run_exit_code %d\n", m.ExitCode)
	header(w, "showsave_run_warnings_total", "Warnings logged during the last run")
	fmt.Fprintf(w, "showsave_run_warnings_total %d\n", m.WarningCount)
	header(w, "showsave_run_errors_total", "Errors logged during the last run")
	fmt.Fprintf(w, "showsave_run_errors_total %d\n", m.ErrorCount)
	header(w, "showsave_run_systems_total", "Systems attempted in the last run")
	fmt.Fprintf(w, "showsave_run_systems_total %d\n", len(m.Systems))
	header(w, "showsave_run_systems_failed_total", "Systems that failed in the last run")
	fmt.Fprintf(w, "showsave_run_systems_failed_total %d\n", failed)
	header(w, "showsave_info", "Static information about this showsave binary")
	fmt.Fprintf(w, "showsave_info{version=\"%s\"} 1\n", escapeLabel(m.Version))
}

func writeSystemMetrics(w *bufio.Writer, systems []SystemMetrics) {
	if len(systems) == 0 {
		return
	}
	type series struct {
		name, help string
		value      func(SystemMetrics) string
	}
	all := []series{
		{"showsave_system_success", "1 when the last backup of the system succeeded", func(s SystemMetrics) string {
			if s.Success {
				return "1"
			}
			return "0"
		}},
		{"showsave_system_duration_seconds", "Duration of the last system backup", func(s SystemMetrics) string {
			return fmt.Sprintf("%.2f", s.Duration.Seconds())
		}},
		{"showsave_system_files_total", "Files written to the archive", func(s SystemMetrics) string {
			return fmt.Sprint(s.Files)
		}},
		{"showsave_system_dirs_total", "Directory members written to the archive", func(s SystemMetrics) string {
			return fmt.Sprint(s.Dirs)
		}},
		{"showsave_system_skipped_total", "Files skipped by exclusion rules", func(s SystemMetrics) string {
			return fmt.Sprint(s.Skipped)
		}},
		{"showsave_system_bytes", "Uncompressed bytes archived", func(s SystemMetrics) string {
			return fmt.Sprint(s.Bytes)
		}},
		{"showsave_system_archive_size_bytes", "Size of the written archive", func(s SystemMetrics) string {
			return fmt.Sprint(s.ArchiveSize)
		}},
	}
	for _, ser := range all {
		header(w, ser.name, ser.help)
		for _, s := range systems {
			fmt.Fprintf(w, "%s{system=\"%s\",kind=\"%s\"} %s\n", ser.name, escapeLabel(s.Name), escapeLabel(s.Kind), ser.value(s))
		}
	}
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string {
	return labelEscaper.Replace(v)
}
