package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/jellyshell/jellyshell/internal/discovery"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/jellyshell/jellyshell/internal/servercheck"
	"github.com/stretchr/testify/assert"
)

func init() {
	SetNoColor(true)
}

func TestRenderServers(t *testing.T) {
	out := RenderServers([]discovery.Server{
		{ID: "0123456789abcdef", Name: "Living Room", Address: "http://10.0.0.5:8096"},
		{ID: "b", Name: "Den", Address: "http://10.0.0.6:8096"},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "Living Room  http://10.0.0.5:8096  012345678...")
	assert.Contains(t, lines[2], "Den          http://10.0.0.6:8096  b")
}

func TestRenderServersEmpty(t *testing.T) {
	assert.Equal(t, "No servers found\n", RenderServers(nil))
}

func TestRenderModesMarksCurrent(t *testing.T) {
	fhd := display.Mode{Width: 1920, Height: 1080, RefreshRate: 60}
	uhd := display.Mode{Width: 3840, Height: 2160, RefreshRate: 23.976, HDR10: true}

	out := RenderModes([]display.Mode{fhd, uhd}, uhd)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.False(t, strings.HasPrefix(lines[1], "*"))
	assert.True(t, strings.HasPrefix(lines[2], "*"))
	assert.Contains(t, lines[2], "23.976Hz")
	assert.Contains(t, lines[2], "yes")
}

func TestRenderNegotiation(t *testing.T) {
	out := RenderNegotiation(display.HdrNone, nil)
	assert.Contains(t, out, "default mode")

	out = RenderNegotiation(display.HdrEotf2084, []display.Mode{{Width: 3840, Height: 2160, RefreshRate: 24, HDR10: true}})
	assert.Contains(t, out, "1. ")
}

func TestRenderCheck(t *testing.T) {
	out := RenderCheck("http://host:8096", servercheck.Result{
		Valid:   false,
		Message: "Could not connect to the server at http://host:8096.",
	})
	assert.Contains(t, out, "Unavailable")
	assert.Contains(t, out, "Could not connect")

	out = RenderCheck("http://host:8096", servercheck.Result{Valid: true, Version: "10.9.11", Deprecated: true})
	assert.Contains(t, out, "deprecated")
	assert.Contains(t, out, "10.9.11")

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Equal(t, boxWidth, visibleLength(line), line)
	}
}

func TestRenderSettingsSorted(t *testing.T) {
	out := RenderSettings(map[string]any{"b": true, "a": "x"})
	assert.Equal(t, "a = x\nb = true\n", out)
}

func TestRenderError(t *testing.T) {
	assert.Equal(t, "Error: boom", RenderError(errors.New("boom")))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
	assert.Equal(t, []string{"x"}, wrapText("x", 0)[:1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
}
