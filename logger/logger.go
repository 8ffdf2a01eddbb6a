package logger

import (
	"os"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger used across the bot. When hub is set, entries at warn level and
// above are also reported to Sentry through it.
func New(level string, hub *sentry.Hub) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(lvl),
	)
	log := zap.New(core, zap.AddCaller())
	if hub == nil || hub.Client() == nil {
		return log, nil
	}

	sentryCore, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:        zapcore.WarnLevel,
		FlushTimeout: 2 * time.Second,
		Hub:          hub,
	}, zapsentry.NewSentryClientFromClient(hub.Client()))
	if err != nil {
		return nil, err
	}
	return zapsentry.AttachCoreToLogger(sentryCore, log), nil
}
