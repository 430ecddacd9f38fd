package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jellyshell/jellyshell/internal/bridge"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableYAML = `
default:
  width: 1920
  height: 1080
  refreshRate: 60
modes:
  - {width: 3840, height: 2160, refreshRate: 24, hdr10: true, dolbyVisionLowLatency: true}
  - {width: 1920, height: 1080, refreshRate: 60}
  - {width: 1920, height: 1080, refreshRate: 24}
reject:
  - {width: 1920, height: 1080, refreshRate: 24}
`

func TestParseModeTable(t *testing.T) {
	table, err := ParseModeTable([]byte(tableYAML))
	require.NoError(t, err)

	ctx := context.Background()
	modes, err := table.SupportedModes(ctx)
	require.NoError(t, err)
	require.Len(t, modes, 3)
	assert.True(t, modes[0].DolbyVisionLowLatency)

	current, _ := table.CurrentMode(ctx)
	assert.Equal(t, display.Mode{Width: 1920, Height: 1080, RefreshRate: 60}, current)
}

func TestModeTableRequests(t *testing.T) {
	table, err := ParseModeTable([]byte(tableYAML))
	require.NoError(t, err)
	ctx := context.Background()

	uhd := display.Mode{Width: 3840, Height: 2160, RefreshRate: 24, HDR10: true, DolbyVisionLowLatency: true}
	ok, err := table.RequestSetMode(ctx, uhd, display.HdrDolbyVisionLowLatency)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, display.HdrDolbyVisionLowLatency, table.CurrentHdr())

	ok, _ = table.RequestSetMode(ctx, display.Mode{Width: 1920, Height: 1080, RefreshRate: 24}, display.HdrNone)
	assert.False(t, ok, "rejected mode")

	ok, _ = table.RequestSetMode(ctx, display.Mode{Width: 640, Height: 480, RefreshRate: 60}, display.HdrNone)
	assert.False(t, ok, "unsupported mode")

	require.NoError(t, table.SetDefaultMode(ctx))
	current, _ := table.CurrentMode(ctx)
	assert.Equal(t, 1920, current.Width)
	assert.Equal(t, display.HdrNone, table.CurrentHdr())
}

func TestParseModeTableErrors(t *testing.T) {
	_, err := ParseModeTable([]byte("modes: []"))
	assert.Error(t, err)

	_, err = ParseModeTable([]byte("modes: [this is: not valid"))
	assert.Error(t, err)
}

func TestParseModeTableDefaultsToFirstMode(t *testing.T) {
	table, err := ParseModeTable([]byte("modes:\n  - {width: 1280, height: 720, refreshRate: 50}\n"))
	require.NoError(t, err)
	current, _ := table.CurrentMode(context.Background())
	assert.Equal(t, 1280, current.Width)
}

func TestLoadModeTableRoundTrip(t *testing.T) {
	table := NewModeTable(TVModes(), display.Mode{Width: 1920, Height: 1080, RefreshRate: 60, HDR10: true})
	data, err := table.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "modes.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := LoadModeTable(path)
	require.NoError(t, err)
	modes, _ := loaded.SupportedModes(context.Background())
	assert.Equal(t, TVModes(), modes)
}

func TestModeTableDrivesNegotiation(t *testing.T) {
	table := NewModeTable(TVModes(), display.Mode{Width: 1920, Height: 1080, RefreshRate: 60, HDR10: true})
	lock := &WakeLock{}
	m := display.NewManager(display.Options{Display: table, WakeLock: lock, TV: true})

	args := map[string]any{"videoWidth": 3840.0, "videoHeight": 2160.0, "videoFrameRate": 23.976, "videoRangeType": "HDR10"}
	require.NoError(t, m.EnableFullscreen(context.Background(), args))

	current, _ := table.CurrentMode(context.Background())
	assert.Equal(t, 3840, current.Width)
	assert.GreaterOrEqual(t, current.RefreshRate, 20.976)
	assert.Equal(t, display.HdrEotf2084, table.CurrentHdr())
	assert.True(t, lock.Held())

	require.NoError(t, m.DisableFullscreen(context.Background()))
	assert.False(t, lock.Held())
}

func TestWakeLockReleasedAfterRepeatedEnable(t *testing.T) {
	table := NewModeTable(TVModes(), display.Mode{Width: 1920, Height: 1080, RefreshRate: 60})
	lock := &WakeLock{}
	m := display.NewManager(display.Options{Display: table, WakeLock: lock, TV: true})

	args := map[string]any{"videoWidth": 1920.0, "videoHeight": 1080.0, "videoFrameRate": 24.0}
	require.NoError(t, m.EnableFullscreen(context.Background(), args))
	require.NoError(t, m.EnableFullscreen(context.Background(), args))
	assert.True(t, lock.Held())

	require.NoError(t, m.DisableFullscreen(context.Background()))
	assert.False(t, lock.Held())
	assert.Equal(t, display.StateIdle, m.State())
}

func TestWindowView(t *testing.T) {
	var changes []bool
	v := NewWindowView(func(on bool) { changes = append(changes, on) }, nil)

	require.NoError(t, v.EnterFullscreen())
	require.NoError(t, v.EnterFullscreen())
	assert.True(t, v.Fullscreen())
	require.NoError(t, v.ExitFullscreen())

	assert.Equal(t, []bool{true, false}, changes)
}

func TestWakeLockCounts(t *testing.T) {
	w := &WakeLock{}
	require.NoError(t, w.Release())
	assert.False(t, w.Held())

	w.Acquire()
	w.Acquire()
	w.Release()
	assert.True(t, w.Held())
	w.Release()
	assert.False(t, w.Held())
}

func TestNavigator(t *testing.T) {
	var shown []bridge.Page
	n := NewNavigator(bridge.PageMain, func(p bridge.Page) { shown = append(shown, p) })

	assert.False(t, n.Back())
	require.NoError(t, n.Navigate(bridge.PageSettings))
	assert.Equal(t, bridge.PageSettings, n.Current())

	assert.True(t, n.Back())
	assert.Equal(t, bridge.PageMain, n.Current())
	assert.Equal(t, []bridge.Page{bridge.PageSettings, bridge.PageMain}, shown)
}

func TestTerminatorRunsOnce(t *testing.T) {
	calls := 0
	term := NewTerminator(func() { calls++ })

	term.Terminate()
	term.Terminate()

	assert.Equal(t, 1, calls)
	select {
	case <-term.Done():
	default:
		t.Fatal("done not closed")
	}
}
