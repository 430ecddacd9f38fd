package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jellyshell/jellyshell/internal/backevent"
	"github.com/jellyshell/jellyshell/internal/bridge"
	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/deviceid"
	"github.com/jellyshell/jellyshell/internal/discovery"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/jellyshell/jellyshell/internal/formfactor"
	"github.com/jellyshell/jellyshell/internal/logging"
	"github.com/jellyshell/jellyshell/internal/metrics"
	"github.com/jellyshell/jellyshell/internal/platform"
	"github.com/jellyshell/jellyshell/internal/registry"
	"github.com/jellyshell/jellyshell/internal/rendererlink"
	"github.com/jellyshell/jellyshell/internal/shellscript"
	"github.com/jellyshell/jellyshell/internal/ui"
	"github.com/jellyshell/jellyshell/internal/uiexec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	executorQueueSize = 64
	restoreTimeout    = 5 * time.Second
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the native host for web content",
	Long: `Run the native side of the shell. Web content connects to the renderer
link WebSocket, receives the NativeShell adapter and sends bridge messages.

Commands read from stdin:
  back     press the back button
  status   print the current page, fullscreen and display mode
  servers  list servers found on the network
  exit     quit`,
	RunE: runHost,
}

func init() {
	hostCmd.Flags().String("addr", "", "Renderer link address (default: JELLYSHELL_LINK_ADDR or 127.0.0.1:8096)")
	hostCmd.Flags().String("modes", "", "YAML mode table for the display")
	hostCmd.Flags().Bool("tv", false, "Treat this device as a TV")
	hostCmd.Flags().Bool("no-discovery", false, "Do not search for servers on start")
}

func runHost(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	ring := logging.NewRing(rt.Log.RingSize)
	logger, err := newLogger(rt, ring)
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings, err := rt.OpenSettings()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = rt.Link.Addr
	}
	forceTV, _ := cmd.Flags().GetBool("tv")
	device := formfactor.Detect(forceTV || rt.Display.ForceTV || settings.GetBool(config.KeyForceTVMode))

	id, err := deviceid.GetOrCreate()
	if err != nil {
		return err
	}

	modesPath, _ := cmd.Flags().GetString("modes")
	table, err := hostModeTable(rt, modesPath, device)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	exec := uiexec.New(executorQueueSize, logger)
	exec.Start()
	defer exec.Close()

	out := cmd.OutOrStdout()
	view := platform.NewWindowView(func(on bool) {
		fmt.Fprintln(out, ui.RenderDim(fmt.Sprintf("fullscreen: %v", on)))
	}, logger)
	lock := &platform.WakeLock{}
	manager := display.NewManager(display.Options{
		Display:  table,
		View:     view,
		WakeLock: lock,
		Settings: settings,
		TV:       device.FormFactor.IsTV(),
		Executor: exec,
		Logger:   logger,
		Metrics:  m,
	})

	nav := platform.NewNavigator(bridge.PageMain, func(p bridge.Page) {
		fmt.Fprintln(out, ui.RenderDim("page: "+string(p)))
	})
	terminator := platform.NewTerminator(cancel)

	handler := bridge.New(bridge.Options{
		Display:    manager,
		Navigator:  nav,
		Terminator: terminator,
		Settings:   settings,
		Executor:   exec,
		Logger:     logger,
		Metrics:    m,
	})
	loaded := handler.OnLoaded(func() {
		logger.Info("web content loaded", zap.String("server", settings.GetString(config.KeyServer)))
	})
	defer loaded.Release()

	modes, err := table.SupportedModes(ctx)
	if err != nil {
		return err
	}
	info := appInfo(device, id, modes)
	link := rendererlink.NewServer(rendererlink.Options{
		Handler:  handler,
		Script:   func() (string, error) { return shellscript.Load(info) },
		Ring:     ring,
		Gatherer: reg,
		Logger:   logger,
		Metrics:  m,
	})

	// Web history goes first; native page history is the last resort.
	dispatcher := backevent.NewDispatcher()
	back := backevent.NewSignal()
	webBack := bridge.BindBack(dispatcher, back, link)
	defer webBack.Release()
	navBack := dispatcher.Observe(back, func(e *backevent.Event) {
		e.Handled = nav.Back()
	}, backevent.DefaultPriority)
	defer navBack.Release()

	servers := registry.NewRegistry()
	if noDiscovery, _ := cmd.Flags().GetBool("no-discovery"); !noDiscovery {
		svc := discovery.NewService(discovery.Config{
			Port:        rt.Discovery.Port,
			Interval:    rt.Discovery.Interval,
			ReadTimeout: rt.Discovery.ReadTimeout,
			Logger:      logger,
			Metrics:     m,
		})
		defer svc.Close()
		found := svc.OnDiscover(func(s discovery.Server) {
			if servers.Upsert(s) {
				logger.Info("server found", zap.String("name", s.Name), zap.String("address", s.Address))
			}
		})
		defer found.Release()
		if err := svc.Start(); err != nil {
			logger.Warn("server discovery unavailable", zap.Error(err))
		}
	}

	console := &hostConsole{
		out:        out,
		back:       back,
		nav:        nav,
		view:       view,
		table:      table,
		servers:    servers,
		terminator: terminator,
	}
	go console.run(cmd.InOrStdin())

	fmt.Fprint(out, ui.RenderHeader(Version, device, addr))
	serveErr := link.ListenAndServe(ctx, addr)

	// Leave the display the way we found it.
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer restoreCancel()
	if err := manager.DisableFullscreen(restoreCtx); err != nil && !errors.Is(err, uiexec.ErrClosed) {
		logger.Warn("failed to restore display", zap.Error(err))
	}
	return serveErr
}

// hostModeTable picks the display backing for negotiation: a mode table file
// when one is given, a TV table for TVs, and the primary screen otherwise.
func hostModeTable(rt *config.Runtime, path string, device *formfactor.DeviceInfo) (*platform.ModeTable, error) {
	if path == "" {
		path = rt.Display.ModesFile
	}
	if path != "" {
		return platform.LoadModeTable(path)
	}

	fhd := display.Mode{Width: 1920, Height: 1080, RefreshRate: 60}
	if device.FormFactor.IsTV() {
		return platform.NewModeTable(platform.TVModes(), fhd), nil
	}
	table, err := platform.ScreenModeTable()
	if errors.Is(err, platform.ErrNoDisplay) {
		return platform.NewModeTable([]display.Mode{fhd}, fhd), nil
	}
	return table, err
}

// hostConsole turns stdin lines into shell input
type hostConsole struct {
	out        io.Writer
	back       *backevent.Signal
	nav        *platform.Navigator
	view       *platform.WindowView
	table      *platform.ModeTable
	servers    *registry.Registry
	terminator *platform.Terminator
}

func (c *hostConsole) run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-c.terminator.Done():
			return
		default:
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "":
		case "back":
			if !c.back.Fire() {
				fmt.Fprintln(c.out, ui.RenderDim("nothing to go back to"))
			}
		case "status":
			current, _ := c.table.CurrentMode(context.Background())
			fmt.Fprintf(c.out, "page=%s fullscreen=%v mode=%s hdr=%s\n",
				c.nav.Current(), c.view.Fullscreen(), current, c.table.CurrentHdr())
		case "servers":
			fmt.Fprint(c.out, ui.RenderServers(c.servers.List()))
		case "exit", "quit":
			c.terminator.Terminate()
			return
		default:
			fmt.Fprintln(c.out, ui.RenderWarning("unknown command: "+scanner.Text()))
		}
	}
}
