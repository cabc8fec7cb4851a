package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tis24dev/showsave/internal/backup"
	"github.com/tis24dev/showsave/internal/cli"
	"github.com/tis24dev/showsave/internal/config"
	"github.com/tis24dev/showsave/internal/input"
	"github.com/tis24dev/showsave/internal/logging"
	"github.com/tis24dev/showsave/internal/orchestrator"
	"github.com/tis24dev/showsave/internal/types"
	"github.com/tis24dev/showsave/internal/version"
)

// runConfigCommand handles the flags that only deal with the configuration
// file and never need it to be valid.
func runConfigCommand(args *cli.Args, w io.Writer, bootstrap *logging.BootstrapLogger) (bool, types.ExitCode) {
	switch {
	case args.ConfigLocation:
		path := args.ConfigPath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		fmt.Fprintf(w, "You need to store your %s here (%s):\n", filepath.Base(path), args.ConfigPathSource)
		fmt.Fprintln(w, path)
		return true, types.ExitSuccess
	case args.ShowExample:
		fmt.Fprint(w, config.ExampleConfig(config.CurrentUsername()))
		return true, types.ExitSuccess
	case args.CreateConfig:
		msg, err := config.CreateExample(args.ConfigPath)
		if err != nil {
			bootstrap.Error("Could not create %s: %v", args.ConfigPath, err)
			return true, types.ExitConfigError
		}
		fmt.Fprintln(w, msg)
		return true, types.ExitSuccess
	}
	return false, types.ExitSuccess
}

// useColor resolves the configured color mode for the output behind fd.
func useColor(mode config.ColorMode, fd int) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return input.IsTerminal(fd)
}

func printSystemList(w io.Writer, systems, valid []backup.SystemDefinition) {
	ok := make(map[string]bool, len(valid))
	for _, s := range valid {
		ok[string(s.Kind)+"/"+s.Name] = true
	}
	if len(systems) == 0 {
		fmt.Fprintln(w, "No systems configured")
		return
	}
	for _, s := range systems {
		status := "invalid"
		if ok[string(s.Kind)+"/"+s.Name] {
			status = "ok"
		}
		fmt.Fprintf(w, "%-8s %s %s\n", "["+status+"]", s.Kind.Label(), s.Name)
		fmt.Fprintf(w, "         %s -> %s\n", s.SourceRoot, s.DestinationRoot)
	}
}

// selectSystems resolves which systems to back up from the flags, falling
// back to the interactive menu.
func selectSystems(ctx context.Context, ui orchestrator.BackupWorkflowUI, valid []backup.SystemDefinition, args *cli.Args, interactive bool) ([]backup.SystemDefinition, error) {
	if args.All {
		return valid, nil
	}
	if len(args.Systems) > 0 {
		return systemsByName(valid, args.Systems)
	}
	if !interactive {
		return nil, fmt.Errorf("no system selected: use --system NAME or --all when stdin is not a terminal")
	}
	return ui.SelectSystems(ctx, valid)
}

func systemsByName(valid []backup.SystemDefinition, names []string) ([]backup.SystemDefinition, error) {
	byName := make(map[string]backup.SystemDefinition, len(valid))
	for _, s := range valid {
		byName[s.Name] = s
	}
	var (
		selected []backup.SystemDefinition
		unknown  []string
		seen     = make(map[string]bool)
	)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		s, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, s)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown or invalid system(s): %s (see --list)", strings.Join(unknown, ", "))
	}
	return selected, nil
}

func printFinalSummary(w io.Writer, code types.ExitCode, logger *logging.Logger) {
	hasWarnings := logger != nil && logger.HasWarnings()
	useColor := logger != nil && logger.UsesColor()

	color := ""
	status := "completed"
	switch {
	case code == types.ExitInterrupted:
		color = "\033[35m"
		status = "interrupted"
	case code == types.ExitSuccess && hasWarnings:
		color = "\033[33m"
		status = "completed with warnings"
	case code == types.ExitSuccess:
		color = "\033[32m"
	default:
		color = "\033[31m"
		status = code.String()
	}

	line := strings.Repeat("=", 43)
	fmt.Fprintln(w)
	if useColor {
		fmt.Fprintf(w, "%s%s\n", color, line)
		fmt.Fprintf(w, "showsave %s - %s\n", version.String(), status)
		fmt.Fprintf(w, "%s\033[0m\n", line)
		return
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "showsave %s - %s\n", version.String(), status)
	fmt.Fprintln(w, line)
}
