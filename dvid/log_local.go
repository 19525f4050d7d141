package dvid

import (
	"fmt"
	"log"

	"github.com/natefinch/lumberjack"
)

type stdLogger struct {
	*lumberjack.Logger
}

// LogConfig is the [logging] section of a run configuration.
type LogConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"`
	MaxAge  int `toml:"max_log_age"`
	Level   string
}

// ModeFromString converts a configured level name into a ModeFlag.  Unknown or empty
// names give InfoMode.
func ModeFromString(level string) ModeFlag {
	switch level {
	case "debug":
		return DebugMode
	case "warning":
		return WarningMode
	case "error":
		return ErrorMode
	case "critical":
		return CriticalMode
	case "silent":
		return SilentMode
	default:
		return InfoMode
	}
}

// SetLogger creates a logger that saves to a rotating log file and sets the log level.
func (c *LogConfig) SetLogger() {
	if c == nil {
		return
	}
	if c.Level != "" {
		SetLogMode(ModeFromString(c.Level))
	}
	if c.Logfile == "" {
		Infof("Sending log messages to stderr since no log file specified.\n")
		return
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  //days
	}
	log.SetOutput(l)
	logger = stdLogger{l}
}

// --- Logger implementation ----

// Debugf formats its arguments analogous to fmt.Printf and records the text as a log
// message at Debug level.
func (slog stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf(" DEBUG "+format, args...)
}

// Infof is like Debugf, but at Info level.
func (slog stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

// Warningf is like Debugf, but at Warning level.
func (slog stdLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

// Criticalf is like Debugf, but at Critical level.
func (slog stdLogger) Criticalf(format string, args ...interface{}) {
	log.Printf(" CRITICAL "+format, args...)
}

func (slog stdLogger) Shutdown() {
	if slog.Logger != nil {
		log.Printf("Closing log file...\n")
		slog.Close()
	}
}
