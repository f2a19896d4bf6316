package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	require.Equal(t, DefaultUserAgent, opts.UserAgent)
	require.Equal(t, 1920, opts.Viewport.Width)
	require.Equal(t, 1080, opts.Viewport.Height)
	require.Equal(t, 30*time.Second, opts.NavTimeout)
}

func TestOptionsOverridesKept(t *testing.T) {
	opts := Options{
		Headless:   true,
		UserAgent:  "custom",
		Viewport:   Viewport{Width: 800, Height: 600},
		NavTimeout: time.Second,
	}.withDefaults()
	require.Equal(t, "custom", opts.UserAgent)
	require.Equal(t, 800, opts.Viewport.Width)
	require.Equal(t, time.Second, opts.NavTimeout)
}
