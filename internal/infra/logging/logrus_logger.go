package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

type LogrusLogger struct {
	entry *log.Entry
}

// NewLogrusLogger builds a logger writing to stdout. format is "json" or
// "text"; an unknown level falls back to info.
func NewLogrusLogger(level, format string) *LogrusLogger {
	return newLogrusLogger(os.Stdout, level, format)
}

func newLogrusLogger(out io.Writer, level, format string) *LogrusLogger {
	l := log.New()
	l.SetOutput(out)

	if format == "text" {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&log.JSONFormatter{})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)

	return &LogrusLogger{entry: log.NewEntry(l)}
}

// With returns a logger that adds fields to every entry.
func (l *LogrusLogger) With(fields map[string]any) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(log.Fields(fields))}
}

func (l *LogrusLogger) Info(msg string, fields map[string]any) {
	l.entry.WithFields(log.Fields(fields)).Info(msg)
}

func (l *LogrusLogger) Error(msg string, fields map[string]any) {
	l.entry.WithFields(log.Fields(fields)).Error(msg)
}
