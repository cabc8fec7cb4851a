package orchestrator

import (
	"context"

	"github.com/tis24dev/showsave/internal/backup"
)

// ProgressReporter receives user-facing progress lines.
type ProgressReporter func(message string)

// TaskRunner runs a function while presenting progress feedback to the user (CLI/TUI).
// Implementations may provide a cancel action that cancels the provided context.
type TaskRunner interface {
	RunTask(ctx context.Context, title, initialMessage string, run func(ctx context.Context, report ProgressReporter) error) error
}

// BackupWorkflowUI groups the interactions of a backup run.
type BackupWorkflowUI interface {
	TaskRunner
	ShowMessage(ctx context.Context, title, message string) error
	ShowError(ctx context.Context, title, message string) error
	// SelectSystems asks which of the valid systems to back up.
	SelectSystems(ctx context.Context, systems []backup.SystemDefinition) ([]backup.SystemDefinition, error)
}

const allSystemsLabel = "All systems"

func systemLabel(system backup.SystemDefinition) string {
	return system.Kind.Label() + " " + system.Name
}

// pickSystems maps a menu choice to the systems to back up; 0 selects all.
func pickSystems(systems []backup.SystemDefinition, choice int) []backup.SystemDefinition {
	if choice <= 0 || choice > len(systems) {
		return append([]backup.SystemDefinition(nil), systems...)
	}
	return []backup.SystemDefinition{systems[choice-1]}
}
