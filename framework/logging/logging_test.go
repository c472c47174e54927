package logging_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/logging"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		cfg     config.LogConfig
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{config.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel, zapcore.InvalidLevel},
		{config.LogConfig{Level: "info", Format: "json"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{config.LogConfig{Level: "error", Format: "json"}, zapcore.ErrorLevel, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Level+"/"+tt.cfg.Format, func(t *testing.T) {
			logger, err := logging.New(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("%s should be enabled", tt.enabled)
			}
			if tt.skipped != zapcore.InvalidLevel && logger.Core().Enabled(tt.skipped) {
				t.Errorf("%s should be disabled", tt.skipped)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := logging.New(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
