package commands

import (
	"fmt"

	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/deviceid"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/jellyshell/jellyshell/internal/formfactor"
	"github.com/jellyshell/jellyshell/internal/shellscript"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the script injected into web content",
	Long: `Print the NativeShell adapter with this device's values filled in. Load it
into a browser page to drive a running "jellyshell host" from outside.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		settings, err := rt.OpenSettings()
		if err != nil {
			return err
		}
		device := formfactor.Detect(rt.Display.ForceTV || settings.GetBool(config.KeyForceTVMode))

		id, err := deviceid.GetOrCreate()
		if err != nil {
			return err
		}
		table, err := hostModeTable(rt, "", device)
		if err != nil {
			return err
		}
		modes, err := table.SupportedModes(cmd.Context())
		if err != nil {
			return err
		}

		script, err := shellscript.Load(appInfo(device, id, modes))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), script)
		return nil
	},
}

func appInfo(device *formfactor.DeviceInfo, id string, modes []display.Mode) shellscript.AppInfo {
	info := shellscript.AppInfo{
		Name:       AppName,
		Version:    Version,
		DeviceName: device.DeviceName(),
		DeviceID:   id,
		FormFactor: string(device.FormFactor),
	}
	if len(modes) > 0 {
		hdr10, dv := display.Capabilities(modes)
		info.SupportsHDR10 = shellscript.Bool(hdr10)
		info.SupportsDolbyVision = shellscript.Bool(dv)
	}
	return info
}
