// Package logger adapts hclog to the uniweb.Logger interface.
package logger

import (
	"io"
	"os"
	"sort"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
	"github.com/hashicorp/go-hclog"
)

var (
	_ uniweb.Logger = (*HCLogger)(nil)
	_ uniweb.Logger = NoopLogger{}
)

// Options configures a logger built by New.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// HCLogger forwards structured fields to an hclog.Logger.
type HCLogger struct {
	logger hclog.Logger
}

// New builds a logger writing to Output, or stderr when unset.
func New(opts Options) *HCLogger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	name := opts.Name
	if name == "" {
		name = "uniweb"
	}

	return &HCLogger{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:       name,
			Level:      hclog.LevelFromString(levelOrDefault(opts.Level)),
			Output:     output,
			JSONFormat: opts.JSON,
		}),
	}
}

// NewDefault returns a stderr logger at info level, or debug when debug is set.
func NewDefault(debug bool) *HCLogger {
	level := "info"
	if debug {
		level = "debug"
	}

	return New(Options{Level: level})
}

// Wrap adapts an existing hclog.Logger.
func Wrap(logger hclog.Logger) *HCLogger {
	return &HCLogger{logger: logger}
}

func (l *HCLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, args(fields)...)
}

func (l *HCLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, args(fields)...)
}

func (l *HCLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, args(fields)...)
}

func (l *HCLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, args(fields)...)
}

// Named returns a sub-logger with the given name appended.
func (l *HCLogger) Named(name string) *HCLogger {
	return &HCLogger{logger: l.logger.Named(name)}
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// args flattens fields into key/value pairs ordered by key so output is stable.
func args(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]interface{}, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, key, fields[key])
	}

	return pairs
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}

	return level
}
