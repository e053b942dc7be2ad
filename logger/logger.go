package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger based on the provided log level string.
// Accepted levels (case-insensitive): "debug", "info", "warn", "error".
func New(level string) (*zap.Logger, error) {
	// Parse level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		// Return the error so the caller can decide to abort or fall back.
		return nil, err
	}

	// Encoder configuration - JSON, ISO-8601 timestamps, capital level
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		zapLevel,
	)

	return zap.New(core, zap.AddCaller()), nil
}

// Nop returns a logger that discards everything. Handy in tests where the
// code under test requires a logger but the output is noise.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Flush forces any buffered log entries to be written.
// Call this from main just before the program exits.
func Flush(l *zap.Logger) {
	// Sync can return "sync: invalid argument" when stdout is not a file.
	// That is harmless, so the error is ignored.
	_ = l.Sync()
}
