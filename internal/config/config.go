// Package config loads the showsave configuration file and turns it into the
// system definitions consumed by the backup pipeline.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tis24dev/showsave/internal/backup"
	"github.com/tis24dev/showsave/internal/safefs"
	"github.com/tis24dev/showsave/internal/types"
)

const (
	// FileName is the default configuration file name.
	FileName = "config.json"

	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "SHOWSAVE_CONFIG"
	// EnvLogLevel overrides settings.log_level.
	EnvLogLevel = "SHOWSAVE_LOG_LEVEL"

	usernamePlaceholder = "{your_username}"

	defaultPathTimeoutSeconds = 15
)

//go:embed example_config.json
var exampleTemplate string

// ColorMode selects when colored output is used.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "true"
	ColorNever  ColorMode = "false"
)

// Config is the parsed configuration file.
type Config struct {
	Path               string              `yaml:"-"`
	Settings           Settings            `yaml:"settings"`
	Consoles           []Console           `yaml:"consoles"`
	LocalInstallations []LocalInstallation `yaml:"local_installations"`
}

// Settings holds the optional tool-wide settings.
type Settings struct {
	LogLevel            string             `yaml:"log_level"`
	UseColor            string             `yaml:"use_color"`
	LogFile             string             `yaml:"log_file"`
	CompressionLevel    int                `yaml:"compression_level"`
	VerifyArchive       *bool              `yaml:"verify_archive"`
	WriteManifest       bool               `yaml:"write_manifest"`
	KeepPartialArchives bool               `yaml:"keep_partial_archives"`
	PathTimeoutSeconds  int                `yaml:"path_timeout_seconds"`
	MetricsDir          string             `yaml:"metrics_dir"`
	Encryption          EncryptionSettings `yaml:"encryption"`
}

// EncryptionSettings configures age encryption of archives.
type EncryptionSettings struct {
	Enabled       bool     `yaml:"enabled"`
	Recipients    []string `yaml:"recipients"`
	RecipientFile string   `yaml:"recipient_file"`
	Passphrase    bool     `yaml:"passphrase"`
}

// RelPath is one entry of backup_rel_paths.
type RelPath struct {
	RelPath           string   `yaml:"rel_path"`
	IncludeSubfolders bool     `yaml:"include_subfolders"`
	ExcludedFiles     []string `yaml:"excluded_files"`
}

// Console is a lighting console reachable over a network share. The share
// must already be mounted at SharePath; IP and credentials are kept for the
// connectivity layer and are not used by the backup itself.
type Console struct {
	Name           string    `yaml:"name"`
	IP             string    `yaml:"ip"`
	Username       string    `yaml:"username"`
	Password       string    `yaml:"password"`
	SharePath      string    `yaml:"share_path"`
	Dest           string    `yaml:"dest"`
	BackupRelPaths []RelPath `yaml:"backup_rel_paths"`
}

// LocalInstallation is console software installed on this machine.
type LocalInstallation struct {
	Name           string    `yaml:"name"`
	Src            string    `yaml:"src"`
	Dest           string    `yaml:"dest"`
	BackupRelPaths []RelPath `yaml:"backup_rel_paths"`
}

// DefaultPath returns the configuration path: $SHOWSAVE_CONFIG when set,
// otherwise config.json in the working directory.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, FileName)
	}
	return FileName
}

// Load reads and parses the configuration file. JSON is accepted since it is
// valid YAML. An empty path selects DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, backup.NewConfigError(path,
				fmt.Sprintf("file %s is missing. Please add file before using the application", path),
				"Run with --create-config to write an example or --help for further information")
		}
		return nil, backup.WithContext(err, fmt.Sprintf("could not read %s", path))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, backup.NewConfigError(path, fmt.Sprintf("could not read %s", path), err.Error())
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes configuration data and applies defaults and environment
// overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.loadEnvOverrides()
	if err := cfg.Settings.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	s := &c.Settings
	if strings.TrimSpace(s.LogLevel) == "" {
		s.LogLevel = types.LogLevelInfo.String()
	}
	if strings.TrimSpace(s.UseColor) == "" {
		s.UseColor = string(ColorAuto)
	}
	if s.CompressionLevel == 0 {
		s.CompressionLevel = backup.DefaultCompressionLevel
	}
	if s.VerifyArchive == nil {
		verify := true
		s.VerifyArchive = &verify
	}
	if s.PathTimeoutSeconds <= 0 {
		s.PathTimeoutSeconds = defaultPathTimeoutSeconds
	}
	s.LogFile = expandPath(s.LogFile)
	s.MetricsDir = expandPath(s.MetricsDir)
	s.Encryption.RecipientFile = expandPath(s.Encryption.RecipientFile)
}

func (c *Config) loadEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Settings.LogLevel = v
	}
}

func (s *Settings) validate() error {
	if _, ok := types.ParseLogLevel(s.LogLevel); !ok {
		return fmt.Errorf("invalid log_level %q", s.LogLevel)
	}
	switch ColorMode(strings.ToLower(strings.TrimSpace(s.UseColor))) {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid use_color %q (expected auto, true or false)", s.UseColor)
	}
	if s.CompressionLevel < 1 || s.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be 1-9, got %d", s.CompressionLevel)
	}
	enc := s.Encryption
	if enc.Enabled && !enc.Passphrase && len(enc.Recipients) == 0 && enc.RecipientFile == "" {
		return fmt.Errorf("encryption is enabled but no recipients, recipient_file or passphrase are configured")
	}
	return nil
}

// Level returns the configured log level.
func (s Settings) Level() types.LogLevel {
	level, ok := types.ParseLogLevel(s.LogLevel)
	if !ok {
		return types.LogLevelInfo
	}
	return level
}

// Color returns the configured color mode.
func (s Settings) Color() ColorMode {
	return ColorMode(strings.ToLower(strings.TrimSpace(s.UseColor)))
}

// PathTimeout is the timeout for filesystem probes of source paths.
func (s Settings) PathTimeout() time.Duration {
	return time.Duration(s.PathTimeoutSeconds) * time.Second
}

// ShouldVerify reports whether written archives are re-read.
func (s Settings) ShouldVerify() bool {
	return s.VerifyArchive == nil || *s.VerifyArchive
}

// Systems returns every configured system, consoles first, in file order.
func (c *Config) Systems() []backup.SystemDefinition {
	systems := make([]backup.SystemDefinition, 0, len(c.Consoles)+len(c.LocalInstallations))
	for _, con := range c.Consoles {
		systems = append(systems, backup.SystemDefinition{
			Name:            strings.TrimSpace(con.Name),
			Kind:            types.SystemConsole,
			SourceRoot:      expandPath(con.SharePath),
			DestinationRoot: expandPath(con.Dest),
			Requests:        toRequests(con.BackupRelPaths),
		})
	}
	for _, li := range c.LocalInstallations {
		systems = append(systems, backup.SystemDefinition{
			Name:            strings.TrimSpace(li.Name),
			Kind:            types.SystemLocal,
			SourceRoot:      expandPath(li.Src),
			DestinationRoot: expandPath(li.Dest),
			Requests:        toRequests(li.BackupRelPaths),
		})
	}
	return systems
}

func toRequests(paths []RelPath) []backup.BackupRequest {
	out := make([]backup.BackupRequest, 0, len(paths))
	for _, p := range paths {
		out = append(out, backup.BackupRequest{
			RelativePath:      NormalizeRelPath(p.RelPath),
			IncludeSubfolders: p.IncludeSubfolders,
			ExcludedFiles:     append([]string(nil), p.ExcludedFiles...),
		})
	}
	return out
}

// NormalizeRelPath accepts both "/" and "\" separators and returns a cleaned
// path using the host separator. An empty path stays empty.
func NormalizeRelPath(rel string) string {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return ""
	}
	rel = filepath.Clean(filepath.FromSlash(strings.ReplaceAll(rel, `\`, "/")))
	if rel == "." {
		return ""
	}
	return rel
}

func expandPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}

// Validate checks every system and returns the usable ones together with one
// warning per rejected system. A rejected system never aborts the others.
func Validate(ctx context.Context, systems []backup.SystemDefinition, timeout time.Duration) ([]backup.SystemDefinition, []*backup.Error) {
	var (
		valid    []backup.SystemDefinition
		warnings []*backup.Error
		seen     = make(map[string]bool)
	)
	for _, sys := range systems {
		if ctx.Err() != nil {
			warnings = append(warnings, backup.NewConfigError(sys.SourceRoot, fmt.Sprintf("validation of %s interrupted", describe(sys))))
			continue
		}
		problems := validateSystem(ctx, sys, timeout)
		if sys.Name != "" {
			if seen[sys.Name] {
				problems = append(problems, fmt.Sprintf("%s is defined more than once", describe(sys)))
			}
			seen[sys.Name] = true
		}
		if len(problems) > 0 {
			warnings = append(warnings, backup.NewConfigError(sys.SourceRoot, problems...))
			continue
		}
		valid = append(valid, sys)
	}
	return valid, warnings
}

func describe(sys backup.SystemDefinition) string {
	name := sys.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s %s", sys.Kind.Label(), name)
}

func validateSystem(ctx context.Context, sys backup.SystemDefinition, timeout time.Duration) []string {
	var problems []string
	if sys.Name == "" {
		problems = append(problems, fmt.Sprintf("%s has no name", describe(sys)))
	}
	if sys.DestinationRoot == "" {
		problems = append(problems, fmt.Sprintf("No destination (dest) specified for %s", describe(sys)))
	}
	if len(sys.Requests) == 0 {
		problems = append(problems, fmt.Sprintf("No backup folders specified for %s system", sys.Name))
	}

	if sys.SourceRoot == "" {
		if sys.Kind == types.SystemConsole {
			problems = append(problems, fmt.Sprintf("%s has no share_path; mount the console share and set share_path", describe(sys)))
		} else {
			problems = append(problems, fmt.Sprintf("No source (src) specified for %s", describe(sys)))
		}
		return problems
	}

	info, err := safefs.Stat(ctx, sys.SourceRoot, timeout)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			problems = append(problems, fmt.Sprintf("%s for %s system does not exist", sys.SourceRoot, sys.Name))
		} else {
			problems = append(problems, fmt.Sprintf("cannot access %s for %s system: %v", sys.SourceRoot, sys.Name, err))
		}
		return problems
	}
	if !info.IsDir() {
		problems = append(problems, fmt.Sprintf("%s for %s system is not a directory", sys.SourceRoot, sys.Name))
		return problems
	}

	for _, req := range sys.Requests {
		if req.RelativePath != "" && !filepath.IsLocal(req.RelativePath) {
			problems = append(problems, fmt.Sprintf("%s for %s must stay inside %s", req.RelativePath, sys.Name, sys.SourceRoot))
			continue
		}
		sub := filepath.Join(sys.SourceRoot, req.RelativePath)
		if _, err := safefs.Stat(ctx, sub, timeout); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				problems = append(problems, fmt.Sprintf("%s for %s does not exist", sub, sys.Name))
			} else {
				problems = append(problems, fmt.Sprintf("cannot access %s for %s: %v", sub, sys.Name, err))
			}
		}
	}
	return problems
}

// CurrentUsername returns the login name used in the example configuration.
func CurrentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "user"
}

// ExampleConfig returns the example configuration with the username filled in.
func ExampleConfig(username string) string {
	return strings.ReplaceAll(exampleTemplate, usernamePlaceholder, username)
}

// CreateExample writes the example configuration to path. An existing file is
// never overwritten. The returned message names the created file.
func CreateExample(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s already exists", path)
		}
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(ExampleConfig(CurrentUsername())); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fmt.Sprintf("%s created!", path), nil
}
