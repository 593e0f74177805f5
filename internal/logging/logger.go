// Package logging builds the zap logger used by the CLI and the fx module.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unkn0wn-root/tiercache/config"
)

// New returns a JSON logger at cfg.LogLevel. With cfg.LogFile set, output
// goes to a lumberjack-rotated file; otherwise to stderr. If the log
// directory cannot be created the logger falls back to stderr and says so.
func New(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	out, outErr := buildOutput(cfg)
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), out, level)
	logger := zap.New(core)

	if outErr != nil {
		logger.Warn("logger_fallback", zap.String("path", cfg.LogFile), zap.Error(outErr))
	}
	return logger, nil
}

func buildOutput(cfg config.Config) (zapcore.WriteSyncer, error) {
	stderr := zapcore.Lock(os.Stderr)
	if cfg.LogFile == "" {
		return stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return stderr, fmt.Errorf("create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   cfg.LogCompress,
		LocalTime:  true,
	}), nil
}
