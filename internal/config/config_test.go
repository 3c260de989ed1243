package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// No config file in the test working directory: defaults apply.
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(65536), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 10*time.Second, cfg.HTTPClient)
	assert.Equal(t, 20, cfg.ChatLimit)
	assert.Equal(t, 10*time.Second, cfg.ChatWindow)
	assert.NotEmpty(t, cfg.ExecURL)
	assert.NotEmpty(t, cfg.GenURL)
}
