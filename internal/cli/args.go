package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tis24dev/showsave/internal/types"
	"github.com/tis24dev/showsave/internal/version"
)

const (
	configSourceDefault = "default path"
	configSourceEnv     = "set via SHOWSAVE_CONFIG"
	configSourceFlag    = "specified via --config/-c flag"
)

// Args holds the parsed command-line arguments
type Args struct {
	ConfigPath       string
	ConfigPathSource string
	LogLevel         types.LogLevel
	Systems          []string
	All              bool
	List             bool
	DryRun           bool
	ForceCLI         bool
	CreateConfig     bool
	ShowExample      bool
	ConfigLocation   bool
	ShowGuide        bool
	ShowVersion      bool
	ShowHelp         bool
}

// Parse parses command-line arguments and returns Args struct. defaultConfig
// is used when --config is not given; fromEnv tells whether it came from the
// SHOWSAVE_CONFIG variable.
func Parse(defaultConfig string, fromEnv bool) *Args {
	args := &Args{}

	configFlag := newStringFlag(defaultConfig)
	systems := &stringsFlag{}

	flag.Var(configFlag, "config", "Path to configuration file (JSON or YAML)")
	flag.Var(configFlag, "c", "Path to configuration file (shorthand)")

	var logLevelStr string
	flag.StringVar(&logLevelStr, "log-level", "",
		"Log level (debug|info|warning|error|critical)")
	flag.StringVar(&logLevelStr, "l", "",
		"Log level (shorthand)")

	flag.Var(systems, "system", "Back up the named system (repeatable)")
	flag.Var(systems, "s", "Back up the named system (shorthand)")
	flag.BoolVar(&args.All, "all", false, "Back up all valid systems")
	flag.BoolVar(&args.All, "a", false, "Back up all valid systems (shorthand)")
	flag.BoolVar(&args.List, "list", false, "List configured systems and their validation status")

	flag.BoolVar(&args.DryRun, "dry-run", false,
		"Plan the backup and report what would be archived without writing anything")
	flag.BoolVar(&args.DryRun, "n", false,
		"Perform a dry run (shorthand)")

	flag.BoolVar(&args.CreateConfig, "create-config", false,
		"Write an example configuration file at the config path")
	flag.BoolVar(&args.ShowExample, "show-example", false,
		"Print an example configuration file")
	flag.BoolVar(&args.ConfigLocation, "config-location", false,
		"Print where the configuration file is expected")
	flag.BoolVar(&args.ShowGuide, "guide", false,
		"Show the usage guide")

	flag.BoolVar(&args.ForceCLI, "cli", false,
		"Use line output instead of the TUI progress screen")

	flag.BoolVar(&args.ShowVersion, "version", false,
		"Show version information")
	flag.BoolVar(&args.ShowVersion, "v", false,
		"Show version information (shorthand)")

	flag.BoolVar(&args.ShowHelp, "help", false,
		"Show help message")
	flag.BoolVar(&args.ShowHelp, "h", false,
		"Show help message (shorthand)")

	flag.Usage = func() {
		printHelp(os.Stderr, os.Args[0])
	}

	flag.Parse()

	args.ConfigPath = configFlag.value
	switch {
	case configFlag.set:
		args.ConfigPathSource = configSourceFlag
	case fromEnv:
		args.ConfigPathSource = configSourceEnv
	default:
		args.ConfigPathSource = configSourceDefault
	}

	args.Systems = systems.values

	if logLevelStr != "" {
		args.LogLevel = parseLogLevel(logLevelStr)
	} else {
		args.LogLevel = types.LogLevelNone // Will be overridden by config
	}

	return args
}

// Validate rejects flag combinations that cannot be honoured together.
func (a *Args) Validate() error {
	if a.All && len(a.Systems) > 0 {
		return fmt.Errorf("--all and --system cannot be used together")
	}
	if a.List && (a.All || len(a.Systems) > 0) {
		return fmt.Errorf("--list cannot be combined with --all or --system")
	}
	return nil
}

// parseLogLevel converts string to LogLevel
func parseLogLevel(s string) types.LogLevel {
	if level, ok := types.ParseLogLevel(s); ok {
		return level
	}
	return types.LogLevelInfo
}

// PrintHelp writes the usage message to w.
func PrintHelp(w io.Writer) {
	printHelp(w, os.Args[0])
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	printVersion(w)
}

func printHelp(w io.Writer, argv0 string) {
	fmt.Fprintf(w, "Usage: %s [options]\n\n", argv0)
	fmt.Fprintln(w, "showsave - backup of lighting console show files")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s --create-config\n", argv0)
	fmt.Fprintf(w, "  %s --list\n", argv0)
	fmt.Fprintf(w, "  %s -s \"My Mq80\" -s \"MagicQ on Pc\"\n", argv0)
	fmt.Fprintf(w, "  %s --all --dry-run --log-level debug\n", argv0)
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "showsave")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	if version.Commit != "" {
		fmt.Fprintf(w, "Commit: %s\n", version.Commit)
	}
	if version.Date != "" {
		fmt.Fprintf(w, "Built: %s\n", version.Date)
	}
}

type stringFlag struct {
	value string
	set   bool
}

func newStringFlag(defaultValue string) *stringFlag {
	return &stringFlag{value: defaultValue}
}

func (s *stringFlag) String() string {
	return s.value
}

func (s *stringFlag) Set(val string) error {
	s.value = val
	s.set = true
	return nil
}

// stringsFlag collects every occurrence of a repeatable flag.
type stringsFlag struct {
	values []string
}

func (s *stringsFlag) String() string {
	return strings.Join(s.values, ",")
}

func (s *stringsFlag) Set(val string) error {
	val = strings.TrimSpace(val)
	if val == "" {
		return fmt.Errorf("system name cannot be empty")
	}
	s.values = append(s.values, val)
	return nil
}
