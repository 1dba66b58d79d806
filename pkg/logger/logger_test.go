package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_ProductionLevelOverride(t *testing.T) {
	Init("storefront-test", "prod", "warn")
	defer Sync()

	l := L()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestInit_InvalidLevelKeepsDefault(t *testing.T) {
	Init("storefront-test", "dev", "not-a-level")
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel), "dev config defaults to debug")
}

func TestNamed_ReturnsChild(t *testing.T) {
	Init("storefront-test", "dev", "info")
	assert.NotNil(t, Named("listview"))
	assert.NotNil(t, S())
}
