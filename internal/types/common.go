package types

// SystemKind represents how a backed-up system is reached.
type SystemKind string

const (
	// SystemConsole - lighting console reached over a (pre-mounted) network share
	SystemConsole SystemKind = "console"

	// SystemLocal - software installation on this computer
	SystemLocal SystemKind = "local"
)

// String returns the string representation of the system kind.
func (k SystemKind) String() string {
	return string(k)
}

// Label returns the human-readable label used in result messages.
func (k SystemKind) Label() string {
	switch k {
	case SystemConsole:
		return "Console"
	case SystemLocal:
		return "Local installation"
	default:
		return "System"
	}
}

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelDebug - Debug logs (maximum detail)
	LogLevelDebug LogLevel = 5

	// LogLevelInfo - General information
	LogLevelInfo LogLevel = 4

	// LogLevelWarning - Warnings
	LogLevelWarning LogLevel = 3

	// LogLevelError - Errors
	LogLevelError LogLevel = 2

	// LogLevelCritical - Critical errors
	LogLevelCritical LogLevel = 1

	// LogLevelNone - No logs
	LogLevelNone LogLevel = 0
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelError:
		return "ERROR"
	case LogLevelCritical:
		return "CRITICAL"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a textual or numeric level into a LogLevel.
// ok is false when the value is not recognized.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch s {
	case "debug", "DEBUG", "5":
		return LogLevelDebug, true
	case "info", "INFO", "4":
		return LogLevelInfo, true
	case "warning", "WARNING", "warn", "3":
		return LogLevelWarning, true
	case "error", "ERROR", "2":
		return LogLevelError, true
	case "critical", "CRITICAL", "1":
		return LogLevelCritical, true
	case "none", "NONE", "0":
		return LogLevelNone, true
	default:
		return LogLevelInfo, false
	}
}
