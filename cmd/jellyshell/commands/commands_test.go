package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jellyshell/jellyshell/internal/backevent"
	"github.com/jellyshell/jellyshell/internal/bridge"
	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/jellyshell/jellyshell/internal/formfactor"
	"github.com/jellyshell/jellyshell/internal/platform"
	"github.com/jellyshell/jellyshell/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with fresh flag values
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestSettingsSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	_, err := run(t, "--settings", path, "settings", "set", "auto_refresh_rate", "true")
	require.NoError(t, err)
	_, err = run(t, "--settings", path, "settings", "set", "SERVER", "http://media:8096")
	require.NoError(t, err)

	out, err := run(t, "--settings", path, "settings", "get", "AUTO_REFRESH_RATE")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, "--settings", path, "settings", "list")
	require.NoError(t, err)
	assert.Equal(t, "AUTO_REFRESH_RATE = true\nSERVER = http://media:8096\n", out)

	store, err := config.Open(path)
	require.NoError(t, err)
	assert.True(t, store.GetBool(config.KeyAutoRefreshRate))
}

func TestSettingsSetRejectsBadBool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	_, err := run(t, "--settings", path, "settings", "set", "FORCE_TV_MODE", "maybe")
	assert.ErrorContains(t, err, "true or false")
}

func TestNegotiatePicksMatchingMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	out, err := run(t, "--settings", path, "negotiate",
		"--width", "3840", "--height", "2160", "--fps", "23.976", "--range", "HDR10",
		"--auto-resolution", "--auto-refresh-rate")
	require.NoError(t, err)
	assert.Contains(t, out, "HDR: eotf2084")
	assert.Contains(t, out, "1. 3840x2160@23.976")
	assert.Contains(t, out, "2. 3840x2160@24")
}

func TestNegotiateUsesStoredPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	_, err := run(t, "--settings", path, "settings", "set", "AUTO_REFRESH_RATE", "true")
	require.NoError(t, err)

	out, err := run(t, "--settings", path, "negotiate", "--fps", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "resolution=false refresh=true")
	assert.Contains(t, out, "@50")
}

func TestNegotiateListsModeTable(t *testing.T) {
	dir := t.TempDir()
	modes := filepath.Join(dir, "modes.yaml")
	require.NoError(t, os.WriteFile(modes, []byte(`default:
  width: 1920
  height: 1080
  refreshRate: 60
modes:
  - width: 1920
    height: 1080
    refreshRate: 60
  - width: 1280
    height: 720
    refreshRate: 50
`), 0600))

	out, err := run(t, "--settings", filepath.Join(dir, "settings.json"), "negotiate", "--modes", modes, "--list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "*"))
	assert.Contains(t, lines[2], "1280x720")
}

func TestHostModeTable(t *testing.T) {
	rt := config.Default()

	table, err := hostModeTable(rt, "", &formfactor.DeviceInfo{FormFactor: formfactor.TV})
	require.NoError(t, err)
	modes, err := table.SupportedModes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, platform.TVModes(), modes)

	_, err = hostModeTable(rt, filepath.Join(t.TempDir(), "missing.yaml"), &formfactor.DeviceInfo{})
	assert.Error(t, err)
}

func TestHostConsoleBackFallsThroughToNavigator(t *testing.T) {
	fhd := display.Mode{Width: 1920, Height: 1080, RefreshRate: 60}
	nav := platform.NewNavigator(bridge.PageMain, nil)
	require.NoError(t, nav.Navigate(bridge.PageSettings))

	dispatcher := backevent.NewDispatcher()
	back := backevent.NewSignal()
	reg := dispatcher.Observe(back, func(e *backevent.Event) {
		e.Handled = nav.Back()
	}, backevent.DefaultPriority)
	defer reg.Release()

	var out bytes.Buffer
	console := &hostConsole{
		out:        &out,
		back:       back,
		nav:        nav,
		view:       platform.NewWindowView(nil, nil),
		table:      platform.NewModeTable([]display.Mode{fhd}, fhd),
		servers:    registry.NewRegistry(),
		terminator: platform.NewTerminator(nil),
	}

	console.run(strings.NewReader("back\nback\nstatus\nexit\nback\n"))

	assert.Equal(t, bridge.PageMain, nav.Current())
	assert.Contains(t, out.String(), "nothing to go back to")
	assert.Contains(t, out.String(), "page=main fullscreen=false mode=1920x1080@60")
	select {
	case <-console.terminator.Done():
	default:
		t.Fatal("exit did not terminate")
	}
}
