package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/servercheck"
	"github.com/jellyshell/jellyshell/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <server-url>",
	Short: "Check a server and remember it",
	Long: `Connect to a server, follow redirects and confirm it is a supported
Jellyfin server. A valid server is stored as the one to load on start.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Duration("timeout", 0, "Request timeout (default: 10s)")
	validateCmd.Flags().Bool("no-save", false, "Do not store the server")
}

func runValidate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(rt, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	u, err := servercheck.ParseServerURL(args[0])
	if err != nil {
		return err
	}

	checker := servercheck.NewChecker(logger)
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		checker.SetTimeout(timeout)
	}

	spinner := ui.NewSpinner(cmd.ErrOrStderr(), "Connecting to "+u.Host+"...")
	spinner.Start()
	started := time.Now()
	res := checker.Check(cmd.Context(), u)
	spinner.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprint(out, ui.RenderCheck(u.String(), res))
	if !res.Valid {
		return errors.New("server validation failed")
	}
	fmt.Fprintln(out, ui.RenderDim(fmt.Sprintf("Checked in %s", time.Since(started).Round(time.Millisecond))))

	if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
		return nil
	}
	settings, err := rt.OpenSettings()
	if err != nil {
		return err
	}
	if err := settings.SetString(config.KeyServer, res.BaseURL); err != nil {
		return err
	}
	if err := settings.SetString(config.KeyServerVersion, res.Version); err != nil {
		return err
	}
	fmt.Fprintln(out, ui.RenderSuccess("Saved "+res.BaseURL))
	return nil
}
