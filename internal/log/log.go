package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	InfoLevel  = zap.InfoLevel
	WarnLevel  = zap.WarnLevel
	ErrorLevel = zap.ErrorLevel
	DebugLevel = zap.DebugLevel
)

type Field = zap.Field

// function variables for the field types this tool logs
var (
	Bool     = zap.Bool
	Duration = zap.Duration
	Err      = zap.Error
	Int      = zap.Int
	Int64    = zap.Int64
	String   = zap.String
	Strings  = zap.Strings
	Any      = zap.Any

	Info = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Info(msg, fields...)
		}
	}
	Warn = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Warn(msg, fields...)
		}
	}
	Error = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Error(msg, fields...)
		}
	}
	Debug = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Debug(msg, fields...)
		}
	}
)

type Logger struct {
	*zap.Logger // zap ensures that zap.Logger is safe for concurrent use
	level       Level
}

func Default() *Logger {
	return stdLogger
}

var stdLogger *Logger

// New creates a console logger. Verbose lowers the level to debug.
func New(verbose bool) *Logger {
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "ts",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	level := InfoLevel
	if verbose {
		level = DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		level,
	)
	return &Logger{Logger: zap.New(core), level: level}
}

func Sync() error {
	if stdLogger != nil {
		return stdLogger.Sync()
	}
	return nil
}

func InitLog(verbose bool) {
	stdLogger = New(verbose)
}
