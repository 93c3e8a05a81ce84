package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Default level
	Logger.SetLevel(logrus.InfoLevel)

	// Override from env, e.g., LOG_LEVEL=debug
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if parsedLevel, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
			Logger.SetLevel(parsedLevel)
		}
	}
}

// WithComponent adds a component field to the logger
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// Configure applies the level and, when logFile is set, tees output to that file.
// The returned closer switches output back to stdout and releases the log file.
func Configure(level, logFile string) (io.Closer, error) {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nopCloser{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Logger.SetLevel(parsed)

	if logFile == "" {
		return nopCloser{}, nil
	}
	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	Logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return logFileCloser{f}, nil
}

type logFileCloser struct{ f *os.File }

func (c logFileCloser) Close() error {
	Logger.SetOutput(os.Stdout)
	return c.f.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
