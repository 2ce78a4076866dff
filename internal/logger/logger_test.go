package logger

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestLevelFromEnvRecognizesEachName(t *testing.T) {
	require.Equal(t, log.DebugLevel, levelFromEnv("debug"))
	require.Equal(t, log.InfoLevel, levelFromEnv("INFO"))
	require.Equal(t, log.WarnLevel, levelFromEnv("warn"))
	require.Equal(t, log.WarnLevel, levelFromEnv("WARNING"))
	require.Equal(t, log.ErrorLevel, levelFromEnv("Error"))
	require.Equal(t, log.FatalLevel, levelFromEnv("FATAL"))
}

func TestLevelFromEnvDefaultsToInfo(t *testing.T) {
	require.Equal(t, log.InfoLevel, levelFromEnv(""))
	require.Equal(t, log.InfoLevel, levelFromEnv("nonsense"))
}
