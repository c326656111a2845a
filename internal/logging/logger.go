package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar selects the level when --log-level is not given. Unset or
// empty means silent.
const LogLevelEnvVar = "FRISQUET_LOG_LEVEL"

// maxDump bounds hex dumps; radio frames are at most 255 bytes.
const maxDump = 256

var current atomic.Pointer[zap.Logger]

// Initialize installs a stderr console logger at level, falling back to
// FRISQUET_LOG_LEVEL. With neither set logging stays silent.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		SetLogger(zap.NewNop())
		return nil
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil || lvl > zapcore.ErrorLevel {
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl)
	SetLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	return nil
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	current.Store(l)
}

func get() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Debug(msg string, fields ...zap.Field) { get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { get().Error(msg, fields...) }

// LogFrame logs a radio frame at debug level. direction is "send" or "recv"
// and header the formatted frame header or the transport name.
func LogFrame(direction, header string, frame []byte) {
	Debug("Radio frame",
		zap.String("direction", direction),
		zap.String("header", header),
		zap.Int("length", len(frame)),
		Hex("hex", frame),
	)
}

// Hex is a zap field carrying a bounded hex dump of data.
func Hex(key string, data []byte) zap.Field {
	if len(data) > maxDump {
		return zap.String(key, hex.EncodeToString(data[:maxDump])+"...")
	}
	return zap.String(key, hex.EncodeToString(data))
}

// Sync flushes buffered entries.
func Sync() {
	_ = get().Sync()
}
