package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/deviceid"
	"github.com/jellyshell/jellyshell/internal/formfactor"
	"github.com/jellyshell/jellyshell/internal/logging"
	"github.com/jellyshell/jellyshell/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// AppName is reported to web content and servers
const AppName = "Jellyshell"

var rootCmd = &cobra.Command{
	Use:   "jellyshell",
	Short: "Jellyshell - native host for the Jellyfin web client",
	Long: `Jellyshell hosts the Jellyfin web client on TVs and desktops. It bridges
web content to native fullscreen, display mode switching and back navigation,
and finds servers on the local network.

Use "jellyshell [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		noColor, _ := cmd.Flags().GetBool("no-color")
		ui.SetNoColor(noColor)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("settings", "", "Settings file (default: ~/.jellyshell/settings.json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(negotiateCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(debugCmd)
}

// versionCmd shows version info
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		info := formfactor.Detect(false)

		fmt.Fprintf(out, "%s\n", AppName)
		fmt.Fprintf(out, "  Version:  %s\n", Version)
		fmt.Fprintf(out, "  Commit:   %s\n", Commit)
		fmt.Fprintf(out, "  Platform: %s\n", info)
		if paths, err := config.GetPaths(); err == nil {
			if id, err := deviceid.GetAt(paths.ConfigDir); err == nil && id != "" {
				fmt.Fprintf(out, "  Device:   %s\n", id)
			}
		}
	},
}

// loadRuntime reads the environment and applies the global flags on top
func loadRuntime(cmd *cobra.Command) (*config.Runtime, error) {
	rt, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		rt.Log.Level = "debug"
		rt.Log.Development = true
	}
	if path, _ := cmd.Flags().GetString("settings"); path != "" {
		rt.Settings.Path = path
	}
	return rt, nil
}

// newLogger builds the process logger. ring may be nil.
func newLogger(rt *config.Runtime, ring *logging.Ring) (*zap.Logger, error) {
	cfg := logging.DefaultConfig()
	if rt.Log.Development {
		cfg = logging.DevelopmentConfig()
	}
	if rt.Log.Level != "" {
		cfg.Level = rt.Log.Level
	}
	return logging.New(cfg, ring)
}
