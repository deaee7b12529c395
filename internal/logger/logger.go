// Package logger builds the JSON zap logger used by the command.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp format written to every line.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// New returns a sugared JSON logger at level writing to writers, or stdout
// when none are given. Every line carries a "run" id.
func New(level string, writers ...io.Writer) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)

	var syncers []zapcore.WriteSyncer
	if len(writers) == 0 {
		syncers = append(syncers, zapcore.Lock(os.Stdout))
	}
	for _, w := range writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.NewMultiWriteSyncer(syncers...),
		lvl,
	)
	l := zap.New(core, zap.AddCaller()).With(zap.String("run", uuid.NewString()))
	return l.Sugar(), nil
}

// ParseLevel parses a level name such as "debug" or "warn". Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("logger: %w", err)
	}
	return lvl, nil
}

// Stop flushes buffered entries. Sync errors on terminals are ignored.
func Stop(l *zap.SugaredLogger) {
	_ = l.Sync()
}

// Since is a helper for logging elapsed durations rounded to milliseconds.
func Since(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
