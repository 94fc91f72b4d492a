package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fields is a map of structured data attached to a log entry.
type Fields map[string]any

// Format represents the output format
type Format string

const (
	// FormatConsole outputs human-readable console logs (default)
	FormatConsole Format = "console"
	// FormatJSON outputs JSON formatted logs
	FormatJSON Format = "json"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format
	Format Format

	// TimeFormat is the time format to use (defaults to RFC3339)
	TimeFormat string

	// Output is where to write logs (defaults to os.Stdout)
	Output io.Writer
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatConsole,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	}
}

// LoadFromEnv loads configuration from LOG_LEVEL and LOG_FORMAT.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level)
	}

	if format := strings.ToLower(os.Getenv("LOG_FORMAT")); format == "json" {
		config.Format = FormatJSON
	}

	return config
}

// Logger is the main logger instance
type Logger struct {
	config   *Config
	mu       sync.Mutex
	writer   io.Writer
	exitFunc func(int)
}

// NewLogger creates a new logger with the given config
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	writer := config.Output
	if writer == nil {
		writer = os.Stdout
	}

	return &Logger{
		config:   config,
		writer:   writer,
		exitFunc: os.Exit,
	}
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// log is the internal logging method
func (l *Logger) log(level Level, msg string, fields Fields) {
	if !l.config.Level.Enabled(level) {
		return
	}

	var line []byte
	if l.config.Format == FormatJSON {
		line = l.formatJSON(level, msg, fields)
	} else {
		line = l.formatConsole(level, msg, fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "logx: write failed: %v\n", err)
	}
}

func (l *Logger) formatJSON(level Level, msg string, fields Fields) []byte {
	payload := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		payload[k] = v
	}
	payload["time"] = time.Now().Format(l.config.TimeFormat)
	payload["level"] = level.String()
	payload["msg"] = msg

	line, err := json.Marshal(payload)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"msg":%q}`, level.String(), msg))
	}
	return append(line, '\n')
}

func (l *Logger) formatConsole(level Level, msg string, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(time.Now().Format(l.config.TimeFormat))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)

	// Deterministic field order keeps console output diffable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// WithField creates a new entry with a field
func (l *Logger) WithField(key string, value any) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields creates a new entry with fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError creates a new entry with an error
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// exit calls the exit function (swappable for testing)
func (l *Logger) exit(code int) {
	l.exitFunc(code)
}
