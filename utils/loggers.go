package utils

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var appLogger = newLogger(os.Stderr, log.InfoLevel, log.TextFormatter)

func newLogger(w io.Writer, level log.Level, formatter log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
}

// InitLogger configures the process-wide logger from LOG_LEVEL / LOG_FORMAT values.
func InitLogger(level, format string) {
	appLogger = newLogger(os.Stderr, ParseLogLevel(level), ParseLogFormatter(format))
}

// SetLogOutput redirects the process-wide logger, keeping its level.
func SetLogOutput(w io.Writer) {
	appLogger.SetOutput(w)
}

// Logger returns the process-wide logger. Components derive their own with
// Logger().WithPrefix(...).
func Logger() *log.Logger {
	return appLogger
}

// ParseLogLevel parses a string log level to a charmbracelet/log Level.
func ParseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogFormatter parses a string formatter name to a charmbracelet/log Formatter.
func ParseLogFormatter(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func LogInfo(message string, keyvals ...any) {
	appLogger.Info(message, keyvals...)
}

func LogWarning(message string, keyvals ...any) {
	appLogger.Warn(message, keyvals...)
}

func LogError(message string, err error, keyvals ...any) {
	if err != nil {
		keyvals = append(keyvals, "err", err)
	}
	appLogger.Error(message, keyvals...)
}

func LogFatal(message string, err error, keyvals ...any) {
	if err != nil {
		keyvals = append(keyvals, "err", err)
	}
	appLogger.Fatal(message, keyvals...)
}
