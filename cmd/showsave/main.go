package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"

	"github.com/tis24dev/showsave"
	"github.com/tis24dev/showsave/internal/backup"
	"github.com/tis24dev/showsave/internal/cli"
	"github.com/tis24dev/showsave/internal/config"
	"github.com/tis24dev/showsave/internal/input"
	"github.com/tis24dev/showsave/internal/logging"
	"github.com/tis24dev/showsave/internal/orchestrator"
	"github.com/tis24dev/showsave/internal/tui"
	"github.com/tis24dev/showsave/internal/types"
	"github.com/tis24dev/showsave/internal/version"
)

func main() {
	os.Exit(run())
}

var closeStdinOnce sync.Once

func run() (exitCode int) {
	bootstrap := logging.NewBootstrapLogger()

	defer func() {
		if r := recover(); r != nil {
			bootstrap.Error("PANIC: %v", r)
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			exitCode = types.ExitPanicError.Int()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			bootstrap.Warning("\nReceived signal %v, stopping...", sig)
			cancel()
			closeStdinOnce.Do(func() {
				if file := os.Stdin; file != nil {
					_ = file.Close()
				}
			})
		case <-ctx.Done():
		}
	}()
	tui.SetAbortContext(ctx)

	_, fromEnv := os.LookupEnv(config.EnvConfigPath)
	args := cli.Parse(config.DefaultPath(), fromEnv)

	switch {
	case args.ShowHelp:
		cli.PrintHelp(os.Stdout)
		return types.ExitSuccess.Int()
	case args.ShowVersion:
		cli.PrintVersion(os.Stdout)
		return types.ExitSuccess.Int()
	case args.ShowGuide:
		fmt.Fprint(os.Stdout, showsave.Guide())
		return types.ExitSuccess.Int()
	}

	if err := args.Validate(); err != nil {
		bootstrap.Error("ERROR: %v", err)
		return types.ExitConfigError.Int()
	}

	if handled, code := runConfigCommand(args, os.Stdout, bootstrap); handled {
		return code.Int()
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		for _, line := range backup.Texts(err) {
			bootstrap.Error("%s", line)
		}
		return types.ExitConfigError.Int()
	}

	level := cfg.Settings.Level()
	if args.LogLevel != types.LogLevelNone {
		level = args.LogLevel
	}
	logger := logging.New(level, useColor(cfg.Settings.Color(), int(os.Stdout.Fd())))
	if cfg.Settings.LogFile != "" {
		if err := logger.OpenLogFile(cfg.Settings.LogFile); err != nil {
			bootstrap.Warning("WARNING: %v", err)
		} else {
			defer logger.CloseLogFile()
		}
	}
	logging.SetDefaultLogger(logger)
	bootstrap.SetLevel(level)
	bootstrap.Flush(logger)

	logger.Debug("showsave %s, configuration %s (%s)", version.String(), cfg.Path, args.ConfigPathSource)

	systems := cfg.Systems()
	valid, warnings := config.Validate(ctx, systems, cfg.Settings.PathTimeout())
	for _, w := range warnings {
		logger.Lines(types.LogLevelWarning, w.Texts())
	}

	if args.List {
		printSystemList(os.Stdout, systems, valid)
		return types.ExitSuccess.Int()
	}

	if len(valid) == 0 {
		logger.Error("No valid systems found for backup in %s", cfg.Path)
		logger.Error("Run with --guide for help; the warnings above show what is wrong")
		return types.ExitConfigError.Int()
	}

	interactive := input.IsTerminal(int(os.Stdin.Fd()))
	ui := newWorkflowUI(args, cfg.Path, logger, interactive && input.IsTerminal(int(os.Stdout.Fd())))

	selected, err := selectSystems(ctx, ui, valid, args, interactive)
	if err != nil {
		if input.IsAborted(err) {
			logger.Info("No system selected, nothing to do")
			return exitForAbort(ctx)
		}
		logger.Error("%v", err)
		return types.ExitConfigError.Int()
	}

	var prompt orchestrator.PassphrasePrompt
	if interactive {
		prompt = func(ctx context.Context) (string, error) {
			return input.ReadPassphrase(ctx, os.Stderr, int(os.Stdin.Fd()))
		}
	}
	recipients, err := orchestrator.ResolveRecipients(ctx, cfg.Settings.Encryption, prompt)
	if err != nil {
		if input.IsAborted(err) {
			return exitForAbort(ctx)
		}
		logger.Error("Encryption setup failed: %v", err)
		return types.ExitConfigError.Int()
	}

	orch, err := orchestrator.New(logger, cfg, orchestrator.Options{
		DryRun:     args.DryRun,
		Recipients: recipients,
		Runner:     ui,
		Version:    version.String(),
	})
	if err != nil {
		logger.Error("%v", err)
		return types.ExitConfigError.Int()
	}

	results := orch.BackupAll(ctx, selected)
	code := orchestrator.ExitCodeFor(ctx, results)
	if code != types.ExitInterrupted {
		if err := orchestrator.ReportResults(ctx, ui, results); err != nil {
			logger.Debug("Result screen failed: %v", err)
		}
	}
	printFinalSummary(os.Stdout, code, logger)
	return code.Int()
}

func newWorkflowUI(args *cli.Args, configPath string, logger *logging.Logger, fullScreen bool) orchestrator.BackupWorkflowUI {
	if args.ForceCLI || !fullScreen {
		return orchestrator.NewCLIWorkflowUI(os.Stdin, os.Stdout, os.Stderr, logger)
	}
	return orchestrator.NewTUIWorkflowUI(configPath, logger)
}

func exitForAbort(ctx context.Context) int {
	if errors.Is(ctx.Err(), context.Canceled) {
		return types.ExitInterrupted.Int()
	}
	return types.ExitSuccess.Int()
}
