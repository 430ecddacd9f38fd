package commands

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jellyshell/jellyshell/internal/discovery"
	"github.com/jellyshell/jellyshell/internal/registry"
	"github.com/jellyshell/jellyshell/internal/ui"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find servers on the local network",
	Long: `Broadcast a discovery probe over UDP and list every server that answers.

The probe is resent on an interval and the search ends by itself after the
last resend. Use --timeout to stop earlier.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Duration("timeout", 0, "Stop searching after this long (default: until discovery ends)")
	discoverCmd.Flags().Int("port", 0, "Discovery port (default: JELLYSHELL_DISCOVERY_PORT or 7359)")
	discoverCmd.Flags().Duration("interval", 0, "Probe resend interval (default: JELLYSHELL_DISCOVERY_INTERVAL or 10s)")
	discoverCmd.Flags().Bool("json", false, "Print servers as JSON")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(rt, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	port, _ := cmd.Flags().GetInt("port")
	interval, _ := cmd.Flags().GetDuration("interval")
	jsonOut, _ := cmd.Flags().GetBool("json")
	if port == 0 {
		port = rt.Discovery.Port
	}
	if interval == 0 {
		interval = rt.Discovery.Interval
	}

	svc := discovery.NewService(discovery.Config{
		Port:        port,
		Interval:    interval,
		ReadTimeout: rt.Discovery.ReadTimeout,
		Logger:      logger,
	})
	defer svc.Close()

	out := cmd.OutOrStdout()
	servers := registry.NewRegistry()
	spinner := ui.NewSpinner(cmd.ErrOrStderr(), "Searching for servers...")

	found := svc.OnDiscover(func(s discovery.Server) {
		if servers.Upsert(s) {
			spinner.SetMessage(fmt.Sprintf("Searching for servers... %d found", servers.Count()))
		}
	})
	defer found.Release()

	ended := make(chan error, 1)
	endSub := svc.OnDiscoveryEnded(func(err error) {
		select {
		case ended <- err:
		default:
		}
	})
	defer endSub.Release()

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start discovery: %w", err)
	}
	spinner.Start()

	var sessionErr error
	select {
	case sessionErr = <-ended:
	case <-ctx.Done():
		sessionErr = svc.Stop()
	}
	spinner.Stop()

	if sessionErr != nil {
		return fmt.Errorf("discovery failed: %w", sessionErr)
	}

	list := servers.List()
	if jsonOut {
		data, err := sonic.ConfigStd.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprint(out, ui.RenderServers(list))
	return nil
}
