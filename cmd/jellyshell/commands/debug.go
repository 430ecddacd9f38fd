package commands

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// debugCmd is the parent command for debug subcommands
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug and diagnostic commands",
}

// debugFlagsCmd prints resolved flag values for debugging
var debugFlagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Print resolved flag values",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		noColor, _ := cmd.Flags().GetBool("no-color")
		settingsPath, _ := cmd.Flags().GetString("settings")

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Resolved Flag Values:")
		fmt.Fprintf(out, "  --verbose:  %v\n", verbose)
		fmt.Fprintf(out, "  --no-color: %v\n", noColor)
		fmt.Fprintf(out, "  --settings: %q\n", settingsPath)
		return nil
	},
}

// debugConfigCmd prints the runtime configuration after environment overrides
var debugConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the runtime configuration",
	Long:  `Print the configuration read from JELLYSHELL_* environment variables, as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(rt)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugFlagsCmd)
	debugCmd.AddCommand(debugConfigCmd)
}
