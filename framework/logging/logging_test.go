package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/logging"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		cfg   config.LogConfig
		level zap.AtomicLevel
	}{
		{config.LogConfig{Level: "debug", Format: "console"}, zap.NewAtomicLevelAt(zap.DebugLevel)},
		{config.LogConfig{Level: "INFO", Format: "json"}, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{config.LogConfig{Level: "warn"}, zap.NewAtomicLevelAt(zap.WarnLevel)},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Level, func(t *testing.T) {
			logger, err := logging.New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level.Level()))
			assert.False(t, logger.Core().Enabled(tt.level.Level()-1))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := logging.New(config.LogConfig{Level: "loud"})
	require.Error(t, err)

	_, err = logging.New(config.LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}
