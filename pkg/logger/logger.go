package logger

import (
	"fmt"

	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
}

func New(cfg config.Logger) (Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return Logger{}, fmt.Errorf("parse level error: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if len(cfg.Output) != 0 {
		zcfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zcfg.ErrorOutputPaths = cfg.ErrOutput
	}

	l, err := zcfg.Build()
	if err != nil {
		return Logger{}, fmt.Errorf("build logger error: %w", err)
	}

	return Logger{l.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return Logger{zap.NewNop().Sugar()}
}
