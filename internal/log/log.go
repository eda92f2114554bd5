// Package log configures the global zerolog logger for the tool.
// Diagnostics go to stderr (and optionally a file) so that stdout
// stays reserved for command output.
package log

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a string form of zerolog.Level that plugs into cobra as
// a flag value.
type LogLevel string

const (
	DEBUG    LogLevel = "debug"
	INFO     LogLevel = "info"
	WARN     LogLevel = "warn"
	ERROR    LogLevel = "error"
	DISABLED LogLevel = "disabled"
	TRACE    LogLevel = "trace"
)

var Levels = [6]LogLevel{DEBUG, INFO, WARN, ERROR, DISABLED, TRACE}

// LogFile stays open for the lifetime of the process once Init has
// been given a path.
var LogFile *os.File

func (ll LogLevel) String() string {
	return string(ll)
}

func (ll *LogLevel) Set(v string) error {
	if slices.Contains(Levels[:], LogLevel(v)) {
		*ll = LogLevel(v)
		return nil
	}
	return fmt.Errorf("must be one of %v", Levels)
}

func (ll LogLevel) Type() string {
	return "LogLevel"
}

// Init sets up the global logger at the given level, optionally teeing
// output into a log file at logPath.
func Init(logLevel LogLevel, logPath string) error {
	level, err := toZerologLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to convert log level: %v", err)
	}

	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{
			Writer: &zerolog.LevelWriterAdapter{Writer: os.Stderr},
			Level:  level,
		},
	}

	if logPath != "" {
		LogFile, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: LogFile},
			Level:  level,
		})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return nil
}

func toZerologLevel(ll LogLevel) (zerolog.Level, error) {
	switch ll {
	case DEBUG:
		return zerolog.DebugLevel, nil
	case INFO:
		return zerolog.InfoLevel, nil
	case WARN:
		return zerolog.WarnLevel, nil
	case ERROR:
		return zerolog.ErrorLevel, nil
	case DISABLED:
		return zerolog.Disabled, nil
	case TRACE:
		return zerolog.TraceLevel, nil
	}

	levels := make([]string, 0, len(Levels))
	for _, l := range Levels {
		levels = append(levels, string(l))
	}
	return zerolog.NoLevel, fmt.Errorf("invalid log level (options: %s)", strings.Join(levels, ", "))
}
