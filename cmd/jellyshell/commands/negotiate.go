package commands

import (
	"fmt"

	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/jellyshell/jellyshell/internal/platform"
	"github.com/jellyshell/jellyshell/internal/ui"
	"github.com/spf13/cobra"
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Show which display mode a video would get",
	Long: `Run display mode negotiation for a video without touching the display.

Modes come from a YAML mode table (--modes) or a built-in 4K HDR television
table. Auto resolution and auto refresh rate default to the stored settings.`,
	Example: `  jellyshell negotiate --width 3840 --height 2160 --fps 23.976 --range HDR10
  jellyshell negotiate --modes tv.yaml --list`,
	RunE: runNegotiate,
}

func init() {
	negotiateCmd.Flags().String("modes", "", "YAML mode table")
	negotiateCmd.Flags().Int("width", 1920, "Video width")
	negotiateCmd.Flags().Int("height", 1080, "Video height")
	negotiateCmd.Flags().Float64("fps", 24, "Video frame rate")
	negotiateCmd.Flags().String("range", display.RangeSDR, "Video range type (SDR, HDR10, DOVI, ...)")
	negotiateCmd.Flags().Bool("auto-resolution", false, "Switch resolution to match the video")
	negotiateCmd.Flags().Bool("auto-refresh-rate", false, "Switch refresh rate to match the video")
	negotiateCmd.Flags().Bool("list", false, "List the mode table and exit")
}

func runNegotiate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("modes")
	if path == "" {
		path = rt.Display.ModesFile
	}
	table := platform.NewModeTable(platform.TVModes(), display.Mode{Width: 1920, Height: 1080, RefreshRate: 60})
	if path != "" {
		table, err = platform.LoadModeTable(path)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	modes, err := table.SupportedModes(ctx)
	if err != nil {
		return err
	}
	current, err := table.CurrentMode(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if list, _ := cmd.Flags().GetBool("list"); list {
		fmt.Fprint(out, ui.RenderModes(modes, current))
		return nil
	}

	prefs, err := negotiationPrefs(cmd, rt)
	if err != nil {
		return err
	}

	var target display.VideoTarget
	target.Width, _ = cmd.Flags().GetInt("width")
	target.Height, _ = cmd.Flags().GetInt("height")
	target.FrameRate, _ = cmd.Flags().GetFloat64("fps")
	target.RangeType, _ = cmd.Flags().GetString("range")
	if target.Width < 0 || target.Height < 0 || target.FrameRate < 0 {
		return fmt.Errorf("%w: video dimensions must not be negative", display.ErrInvalidArgs)
	}

	hdr, candidates := display.SelectBestModes(modes, target, prefs)

	fmt.Fprintf(out, "%s %dx%d @ %g %s\n", ui.RenderDim("Video:"), target.Width, target.Height, target.FrameRate, target.RangeType)
	fmt.Fprintf(out, "%s resolution=%v refresh=%v\n", ui.RenderDim("Auto:"), prefs.AutoResolution, prefs.AutoRefreshRate)
	fmt.Fprint(out, ui.RenderNegotiation(hdr, candidates))
	return nil
}

// negotiationPrefs reads the stored preferences, letting explicit flags win
func negotiationPrefs(cmd *cobra.Command, rt *config.Runtime) (display.Preferences, error) {
	settings, err := rt.OpenSettings()
	if err != nil {
		return display.Preferences{}, err
	}
	prefs := display.Preferences{
		AutoResolution:  settings.GetBool(config.KeyAutoResolution),
		AutoRefreshRate: settings.GetBool(config.KeyAutoRefreshRate),
	}
	if cmd.Flags().Changed("auto-resolution") {
		prefs.AutoResolution, _ = cmd.Flags().GetBool("auto-resolution")
	}
	if cmd.Flags().Changed("auto-refresh-rate") {
		prefs.AutoRefreshRate, _ = cmd.Flags().GetBool("auto-refresh-rate")
	}
	return prefs, nil
}
