package envconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Setenv("PSE_DEBUG", "")
	LoadConfig()
	require.False(t, Debug)

	t.Setenv("PSE_DEBUG", "false")
	LoadConfig()
	require.False(t, Debug)

	t.Setenv("PSE_DEBUG", "1")
	LoadConfig()
	require.True(t, Debug)

	t.Setenv("PSE_DEBUG", "\"yes\"")
	LoadConfig()
	require.True(t, Debug)
	Debug = false
}

func TestBounds(t *testing.T) {
	t.Setenv("PSE_MAX_WALKERS", "-3")
	t.Setenv("PSE_MAX_RESAMPLES", "0")
	t.Setenv("PSE_MASK_CACHE", "0")
	MaxWalkers = 64
	LoadConfig()

	assert.Equal(t, 64, MaxWalkers, "invalid value keeps previous setting")
	assert.Equal(t, 0, MaxResamples)
	assert.Equal(t, 0, MaskCache)

	t.Setenv("PSE_MAX_WALKERS", "128")
	LoadConfig()
	assert.Equal(t, 128, MaxWalkers)

	// restore defaults for other tests
	t.Setenv("PSE_MAX_WALKERS", "64")
	t.Setenv("PSE_MAX_RESAMPLES", "8")
	t.Setenv("PSE_MASK_CACHE", "1024")
	LoadConfig()
}
