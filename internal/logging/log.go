// Package logging wraps zap so every subsystem shares one logger shape
// and one set of field constructors.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// A Level is a logging priority. Higher levels are more important.
type Level int8

const (
	DebugLevel Level = -1
	InfoLevel  Level = 0
	WarnLevel  Level = 1
	ErrorLevel Level = 2
	PanicLevel Level = 4
	FatalLevel Level = 5
)

// Logger embeds *zap.Logger and carries the config needed to clone itself
// with a new name or field set without losing level/encoding settings.
type Logger struct {
	*zap.Logger
	config *zap.Config
	name   string
}

func New(core zapcore.Core, cfg *zap.Config) *Logger {
	return &Logger{Logger: zap.New(core), config: cfg}
}

func (log *Logger) Clone() *Logger {
	cfg := cloneConfig(log.config)
	newLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: newLogger, config: cfg, name: log.name}
}

func (log *Logger) Named(name string) *Logger {
	c := log.Clone()
	newName := name
	if log.name != "" {
		newName = log.name + "." + name
	}
	return &Logger{Logger: c.Logger.Named(newName), config: c.config, name: newName}
}

func (log *Logger) With(fields ...zap.Field) *Logger {
	c := log.Clone()
	return &Logger{Logger: c.Logger.With(fields...), config: c.config, name: log.name}
}

func (log *Logger) GetLevel() Level {
	return Level(log.config.Level.Level())
}

func (log *Logger) SetLevel(level Level) {
	log.config.Level.SetLevel(zapcore.Level(level))
}

// AtExit flushes buffered log entries; defer it from main.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

func cloneConfig(cfg *zap.Config) *zap.Config {
	c := zap.Config{
		Level:             zap.NewAtomicLevelAt(cfg.Level.Level()),
		Development:       cfg.Development,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Encoding:          cfg.Encoding,
		EncoderConfig:     cfg.EncoderConfig,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.ErrorOutputPaths,
		InitialFields:     make(map[string]interface{}, len(cfg.InitialFields)),
	}
	for k, v := range cfg.InitialFields {
		c.InitialFields[k] = v
	}
	return &c
}

// NewLoggerFromEnv builds a console-encoded logger for "dev" and a
// JSON-encoded logger otherwise, both at levelName.
func NewLoggerFromEnv(env, levelName string) *Logger {
	level := parseLevel(levelName)

	if env == "dev" {
		encoderConfig := zapcore.EncoderConfig{
			CallerKey:      "C",
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			LevelKey:       "L",
			LineEnding:     "\n",
			MessageKey:     "M",
			NameKey:        "N",
			TimeKey:        "T",
		}
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.Level(level)),
			Development:      true,
			Encoding:         "console",
			EncoderConfig:    encoderConfig,
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		}
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), os.Stdout, zapcore.Level(level))
		return New(core, &cfg)
	}

	encoderConfig := zapcore.EncoderConfig{
		CallerKey:     "caller",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeName:    zapcore.FullNameEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		LevelKey:      "level",
		LineEnding:    "\n",
		MessageKey:    "message",
		NameKey:       "logger",
		StacktraceKey: "stacktrace",
		TimeKey:       "@timestamp",
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.Level(level)),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), os.Stdout, zapcore.Level(level))
	return New(core, &cfg)
}

func parseLevel(name string) Level {
	switch name {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
