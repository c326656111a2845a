package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeLevels(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{"INFO", false},
		{"warn", false},
		{"error", false},
		{"fatal", true},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := Initialize(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "bogus")
	if err := Initialize(""); err == nil {
		t.Error("Initialize() accepted an invalid FRISQUET_LOG_LEVEL")
	}
}

func TestLogFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	LogFrame("send", "80<-7e", []byte{0x0a, 0x80, 0x7e})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["direction"] != "send" || fields["hex"] != "0a807e" || fields["length"] != int64(3) {
		t.Errorf("fields = %v", fields)
	}
}

func TestHexTruncates(t *testing.T) {
	f := Hex("payload", make([]byte, 300))
	if !strings.HasSuffix(f.String, "...") || len(f.String) != 2*maxDump+3 {
		t.Errorf("Hex() = %d chars, want truncated dump", len(f.String))
	}
}
