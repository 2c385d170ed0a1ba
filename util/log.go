package util

import (
	"context"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConsole routes log output to stderr instead of a file.
const LogConsole = "console"

type contextKey string

// RunIDKey is the context key holding the id of the current updater run.
const RunIDKey contextKey = "runID"

// WithRunID returns a context carrying the run id picked up by CustomFormatter.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// InitLog parses and sets log-level input
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("Failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	if logPath != "" && logPath != LogConsole {
		lumberjackLogger := &lumberjack.Logger{
			// Log file absolute path, os agnostic
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    1, // MB
			MaxBackups: 5,
		}
		log.SetOutput(io.Writer(lumberjackLogger))
	} else {
		log.SetOutput(os.Stderr)
	}

	log.SetFormatter(&CustomFormatter{
		TextFormatter: log.TextFormatter{
			FullTimestamp:   true,
			DisableColors:   logPath != "" && logPath != LogConsole,
			TimestampFormat: "2006-01-02 15:04:05",
		},
	})
	log.SetLevel(level)
	return nil
}

// CustomFormatter formats the log message as required
type CustomFormatter struct {
	log.TextFormatter
}

func (f *CustomFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Context == nil {
		return f.TextFormatter.Format(entry)
	}

	if runID, ok := entry.Context.Value(RunIDKey).(string); ok && runID != "" {
		entry.Data["run"] = runID
	}

	return f.TextFormatter.Format(entry)
}
