package util

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestGetBrokerConfig(t *testing.T) {
	t.Setenv("CRUSHER_SEED", "42")
	InitConfig()

	cmd := &cobra.Command{Use: "test"}
	SetupBrokerFlags(cmd, "unit.txt")
	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, BindCommandFlags(cmd))
	t.Cleanup(viper.Reset)

	conf := GetBrokerConfig()
	assert.Equal(t, "unit.txt", conf.Name)
	assert.Equal(t, uint64(42), conf.Seed)
	assert.Equal(t, "warn", conf.LogLevel)
	assert.True(t, conf.HandleSignals)
}
