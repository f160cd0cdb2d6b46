package types

// LogLevel represents the severity level of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLogLevel maps a configured level name onto a LogLevel, defaulting to info
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(s) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return LogLevel(s)
	default:
		return LogLevelInfo
	}
}

// LogField represents a structured log field with a key-value pair
type LogField struct {
	Key   string
	Value interface{}
}

// LoggerConfig represents configuration options for a logger
type LoggerConfig struct {
	// MinLevel is the minimum log level to output
	MinLevel LogLevel
	// EnableSampling enables log sampling to reduce volume
	EnableSampling bool
	// SampleRate is the fraction of logs to keep when sampling (0.0-1.0)
	SampleRate float64
	// DefaultFields are fields added to all log messages
	DefaultFields []LogField
}

// Logger is the structured logger used by the guard adapters and the CLI.
//
//	logger.Warn("request rejected",
//	    LogField{Key: "field", Value: FieldBody},
//	    LogField{Key: "errors", Value: 2})
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
	// With returns a new logger with the given fields added to all messages
	With(fields ...LogField) Logger
	// WithSampling returns a new logger with sampling enabled
	WithSampling(rate float64) Logger
	// Flush ensures all logs are written before shutdown
	Flush() error
}

// LoggerFactory creates named loggers
type LoggerFactory interface {
	CreateLogger(name string) Logger
	CreateLoggerWithConfig(name string, config LoggerConfig) Logger
	WithFields(fields ...LogField) LoggerFactory
}

// NoOpLogger implements Logger with no-op operations
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, fields ...LogField) {}
func (l *NoOpLogger) Info(msg string, fields ...LogField)  {}
func (l *NoOpLogger) Warn(msg string, fields ...LogField)  {}
func (l *NoOpLogger) Error(msg string, fields ...LogField) {}
func (l *NoOpLogger) With(fields ...LogField) Logger       { return l }
func (l *NoOpLogger) WithSampling(rate float64) Logger     { return l }
func (l *NoOpLogger) Flush() error                         { return nil }

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}
