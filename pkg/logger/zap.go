package logger

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harriteja/reqguard/pkg/types"
)

// ZapLogger adapts zap.Logger to types.Logger
type ZapLogger struct {
	logger *zap.Logger
	config *types.LoggerConfig
}

// NewZapLogger creates a new ZapLogger with optional configuration
func NewZapLogger(logger *zap.Logger, config *types.LoggerConfig) types.Logger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if config == nil {
		config = &types.LoggerConfig{
			MinLevel:       types.LogLevelInfo,
			EnableSampling: false,
		}
	}
	return &ZapLogger{
		logger: logger,
		config: config,
	}
}

func convertToZapFields(fields []types.LogField) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		zapFields[i] = zap.Any(f.Key, f.Value)
	}
	return zapFields
}

func convertLogLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.LogLevelDebug:
		return zapcore.DebugLevel
	case types.LogLevelInfo:
		return zapcore.InfoLevel
	case types.LogLevelWarn:
		return zapcore.WarnLevel
	case types.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) shouldLog(level types.LogLevel) bool {
	if l.config == nil {
		return true
	}
	return convertLogLevel(level) >= convertLogLevel(l.config.MinLevel)
}

func (l *ZapLogger) Debug(msg string, fields ...types.LogField) {
	if l.shouldLog(types.LogLevelDebug) {
		l.logger.Debug(msg, convertToZapFields(fields)...)
	}
}

func (l *ZapLogger) Info(msg string, fields ...types.LogField) {
	if l.shouldLog(types.LogLevelInfo) {
		l.logger.Info(msg, convertToZapFields(fields)...)
	}
}

func (l *ZapLogger) Warn(msg string, fields ...types.LogField) {
	if l.shouldLog(types.LogLevelWarn) {
		l.logger.Warn(msg, convertToZapFields(fields)...)
	}
}

func (l *ZapLogger) Error(msg string, fields ...types.LogField) {
	if l.shouldLog(types.LogLevelError) {
		l.logger.Error(msg, convertToZapFields(fields)...)
	}
}

func (l *ZapLogger) With(fields ...types.LogField) types.Logger {
	return &ZapLogger{
		logger: l.logger.With(convertToZapFields(fields)...),
		config: l.config,
	}
}

// WithSampling keeps roughly rate of the entries sharing a message per second.
// The sampler wraps the existing core so outputs and encoders are preserved.
func (l *ZapLogger) WithSampling(rate float64) types.Logger {
	if rate <= 0 || rate > 1 {
		return l
	}

	config := *l.config
	config.EnableSampling = true
	config.SampleRate = rate

	n := int(1 / rate)
	sampled := l.logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewSamplerWithOptions(c, time.Second, n, n)
	}))

	return &ZapLogger{
		logger: sampled,
		config: &config,
	}
}

func (l *ZapLogger) Flush() error {
	return l.logger.Sync()
}

// Unwrap exposes the underlying zap.Logger
func (l *ZapLogger) Unwrap() *zap.Logger {
	return l.logger
}

// DefaultZapConfig returns the production JSON configuration
func DefaultZapConfig() zap.Config {
	return zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// DevelopmentZapConfig returns a console configuration for local runs
func DevelopmentZapConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// ZapLoggerFactory hands out named loggers sharing one zap configuration.
// serve builds one per component so log lines carry "logger":"guard",
// "logger":"watcher" and so on.
type ZapLoggerFactory struct {
	config     zap.Config
	minLevel   types.LogLevel
	baseFields []types.LogField
}

// NewZapLoggerFactory creates a factory whose loggers log at minLevel and above
func NewZapLoggerFactory(config zap.Config, minLevel types.LogLevel) *ZapLoggerFactory {
	return &ZapLoggerFactory{
		config:   config,
		minLevel: minLevel,
	}
}

// NewFactoryFromLevel uses the console configuration when development is set
// and the production JSON one otherwise
func NewFactoryFromLevel(level string, development bool) *ZapLoggerFactory {
	cfg := DefaultZapConfig()
	if development {
		cfg = DevelopmentZapConfig()
	}
	return NewZapLoggerFactory(cfg, types.ParseLogLevel(level))
}

// Zap builds the named zap.Logger directly, for middleware that logs with zap
func (f *ZapLoggerFactory) Zap(name string) (*zap.Logger, error) {
	return f.build(name, types.LoggerConfig{MinLevel: f.minLevel})
}

// CreateLogger implements LoggerFactory.CreateLogger
func (f *ZapLoggerFactory) CreateLogger(name string) types.Logger {
	return f.CreateLoggerWithConfig(name, types.LoggerConfig{MinLevel: f.minLevel})
}

// CreateLoggerWithConfig implements LoggerFactory.CreateLoggerWithConfig.
// A configuration zap cannot build, such as an unwritable output path, yields
// a no-op logger.
func (f *ZapLoggerFactory) CreateLoggerWithConfig(name string, config types.LoggerConfig) types.Logger {
	z, err := f.build(name, config)
	if err != nil {
		return types.NewNoOpLogger()
	}
	return NewZapLogger(z.WithOptions(zap.AddCallerSkip(1)), &config)
}

// WithFields implements LoggerFactory.WithFields
func (f *ZapLoggerFactory) WithFields(fields ...types.LogField) types.LoggerFactory {
	return &ZapLoggerFactory{
		config:     f.config,
		minLevel:   f.minLevel,
		baseFields: append(append([]types.LogField(nil), f.baseFields...), fields...),
	}
}

func (f *ZapLoggerFactory) build(name string, config types.LoggerConfig) (*zap.Logger, error) {
	cfg := f.config
	cfg.Level = zap.NewAtomicLevelAt(convertLogLevel(config.MinLevel))
	cfg.Sampling = nil
	if config.EnableSampling && config.SampleRate > 0 && config.SampleRate <= 1 {
		n := int(1 / config.SampleRate)
		cfg.Sampling = &zap.SamplingConfig{Initial: n, Thereafter: n}
	}

	z, err := cfg.Build(zap.Fields(zap.String("logger", name)))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s logger", name)
	}

	fields := append(append([]types.LogField(nil), f.baseFields...), config.DefaultFields...)
	if len(fields) > 0 {
		z = z.With(convertToZapFields(fields)...)
	}
	return z, nil
}
