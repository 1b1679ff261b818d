package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the diagnostics logger for a single invocation,
// writing console-formatted entries to w (the command's stderr).
//
// The default level is Warn, so a normal run only surfaces replication
// warnings; --verbose lowers it to Debug for step-by-step progress.
// Timestamps are stripped: a single short-lived invocation has no use
// for them.
func newLogger(w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		level,
	)

	return zap.New(core)
}
