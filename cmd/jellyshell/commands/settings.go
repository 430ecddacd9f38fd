package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/ui"
	"github.com/spf13/cobra"
)

// boolKeys are the settings stored as booleans
var boolKeys = map[string]bool{
	config.KeyAutoResolution:  true,
	config.KeyAutoRefreshRate: true,
	config.KeyForceTVMode:     true,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change stored settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSettings(cmd)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderSettings(store.Snapshot()))
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSettings(cmd)
		if err != nil {
			return err
		}
		key := strings.ToUpper(args[0])
		if boolKeys[key] {
			fmt.Fprintln(cmd.OutOrStdout(), store.GetBool(key))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.GetString(key))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. AUTO_RESOLUTION, AUTO_REFRESH_RATE and FORCE_TV_MODE
take true or false. Setting a string key to "" removes it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSettings(cmd)
		if err != nil {
			return err
		}
		key := strings.ToUpper(args[0])
		if boolKeys[key] {
			v, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("%s takes true or false, got %q", key, args[1])
			}
			return store.SetBool(key, v)
		}
		return store.SetString(key, args[1])
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func openSettings(cmd *cobra.Command) (*config.FileStore, error) {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return nil, err
	}
	return rt.OpenSettings()
}
