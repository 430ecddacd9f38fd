package display

import (
	"context"
	"sync"

	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/metrics"
	"github.com/jellyshell/jellyshell/internal/uiexec"
	"go.uber.org/zap"
)

// DisplayInfo is the platform's HDMI/display subsystem
type DisplayInfo interface {
	SupportedModes(ctx context.Context) ([]Mode, error)
	CurrentMode(ctx context.Context) (Mode, error)
	// RequestSetMode reports whether the platform accepted the mode
	RequestSetMode(ctx context.Context, mode Mode, hdr HdrOption) (bool, error)
	SetDefaultMode(ctx context.Context) error
}

// View is the host window
type View interface {
	EnterFullscreen() error
	ExitFullscreen() error
}

// WakeLock keeps the display awake while held
type WakeLock interface {
	Acquire() error
	Release() error
}

// State of the fullscreen lifecycle
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateApplied
	StateFallbackApplied
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateApplied:
		return "applied"
	case StateFallbackApplied:
		return "fallback"
	default:
		return "idle"
	}
}

// Result records the outcome of the last enableFullscreen call
type Result struct {
	Target   VideoTarget
	Mode     Mode
	Hdr      HdrOption
	Fallback bool
	Attempts int
}

// Options configures a Manager
type Options struct {
	Display  DisplayInfo
	View     View
	WakeLock WakeLock
	Settings config.Store
	// TV enables mode negotiation; other devices only toggle fullscreen.
	TV       bool
	Executor *uiexec.Executor
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Manager drives fullscreen enter/exit and display mode negotiation
type Manager struct {
	display  DisplayInfo
	view     View
	wakeLock WakeLock
	settings config.Store
	tv       bool
	exec     *uiexec.Executor
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	state    State
	last     *Result
	lockHeld bool
}

// NewManager creates a fullscreen manager
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		display:  opts.Display,
		view:     opts.View,
		wakeLock: opts.WakeLock,
		settings: opts.Settings,
		tv:       opts.TV,
		exec:     opts.Executor,
		logger:   logger.Named("display"),
		metrics:  opts.Metrics,
	}
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastResult returns the outcome of the most recent negotiation, if any
func (m *Manager) LastResult() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Result{}, false
	}
	return *m.last, true
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) preferences() Preferences {
	if m.settings == nil {
		return Preferences{}
	}
	return Preferences{
		AutoResolution:  m.settings.GetBool(config.KeyAutoResolution),
		AutoRefreshRate: m.settings.GetBool(config.KeyAutoRefreshRate),
	}
}

// onUI runs fn on the UI executor when one is configured
func (m *Manager) onUI(ctx context.Context, fn func() error) error {
	if m.exec == nil {
		return fn()
	}
	return m.exec.Do(ctx, fn)
}

// EnableFullscreen handles the enableFullscreen message. On TV-class devices
// it negotiates and applies a display mode, then takes the wake lock. Platform
// failures are absorbed; only unparseable args and context errors are returned.
func (m *Manager) EnableFullscreen(ctx context.Context, args map[string]any) error {
	if !m.tv {
		err := m.onUI(ctx, func() error {
			if m.view == nil {
				return nil
			}
			return m.view.EnterFullscreen()
		})
		if err != nil {
			m.logger.Warn("enter fullscreen failed", zap.Error(err))
			return ctx.Err()
		}
		m.setState(StateApplied)
		m.metrics.RecordNegotiation("fullscreen")
		return nil
	}

	if args == nil {
		m.logger.Info("enableFullscreen called with no args")
		m.metrics.RecordNegotiation("skipped")
		return nil
	}

	target, err := ParseVideoTarget(args)
	if err != nil {
		m.logger.Warn("cannot parse video target", zap.Error(err))
		m.metrics.RecordNegotiation("skipped")
		return err
	}

	m.setState(StateNegotiating)
	res := m.negotiate(ctx, target)

	m.mu.Lock()
	m.last = &res
	if res.Fallback {
		m.state = StateFallbackApplied
	} else {
		m.state = StateApplied
	}
	m.mu.Unlock()

	if res.Fallback {
		m.metrics.RecordNegotiation("fallback")
	} else {
		m.metrics.RecordNegotiation("applied")
	}

	m.acquireWakeLock()
	return ctx.Err()
}

// acquireWakeLock takes the lock unless this manager already holds it, so
// repeated enableFullscreen calls never stack requests.
func (m *Manager) acquireWakeLock() {
	if m.wakeLock == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockHeld {
		return
	}
	if err := m.wakeLock.Acquire(); err != nil {
		m.logger.Warn("wake lock acquire failed", zap.Error(err))
		return
	}
	m.lockHeld = true
}

func (m *Manager) releaseWakeLock() {
	if m.wakeLock == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockHeld = false
	if err := m.wakeLock.Release(); err != nil {
		m.logger.Warn("wake lock release failed", zap.Error(err))
	}
}

func (m *Manager) negotiate(ctx context.Context, target VideoTarget) Result {
	res := Result{Target: target}
	if m.display == nil {
		res.Fallback = true
		return res
	}

	var candidates []Mode
	err := m.onUI(ctx, func() error {
		var err error
		candidates, err = m.display.SupportedModes(ctx)
		return err
	})
	if err != nil {
		m.logger.Warn("cannot list display modes", zap.Error(err))
		m.applyDefault(ctx)
		res.Fallback = true
		return res
	}

	hdr, ranked := SelectBestModes(candidates, target, m.preferences())
	res.Hdr = hdr
	m.logger.Debug("negotiating display mode",
		zap.Int("width", target.Width),
		zap.Int("height", target.Height),
		zap.Float64("fps", target.FrameRate),
		zap.String("range", target.RangeType),
		zap.Stringer("hdr", hdr),
		zap.Int("candidates", len(ranked)),
	)

	for _, mode := range ranked {
		if ctx.Err() != nil {
			break
		}
		res.Attempts++
		var accepted bool
		err := m.onUI(ctx, func() error {
			var err error
			accepted, err = m.display.RequestSetMode(ctx, mode, hdr)
			return err
		})
		if err != nil {
			m.logger.Debug("mode request failed", zap.Stringer("mode", mode), zap.Error(err))
			continue
		}
		if accepted {
			m.logger.Info("display mode applied", zap.Stringer("mode", mode), zap.Stringer("hdr", hdr))
			res.Mode = mode
			return res
		}
		m.logger.Debug("mode rejected", zap.Stringer("mode", mode))
	}

	m.logger.Info("no display mode accepted, using default", zap.Int("attempts", res.Attempts))
	m.applyDefault(ctx)
	res.Hdr = HdrNone
	res.Fallback = true
	return res
}

func (m *Manager) applyDefault(ctx context.Context) {
	if m.display == nil {
		return
	}
	err := m.onUI(ctx, func() error {
		return m.display.SetDefaultMode(ctx)
	})
	if err != nil {
		m.logger.Warn("set default display mode failed", zap.Error(err))
	}
}

// DisableFullscreen restores the default mode on TV-class devices, exits
// fullscreen elsewhere, and always releases the wake lock.
func (m *Manager) DisableFullscreen(ctx context.Context) error {
	if m.tv {
		m.applyDefault(ctx)
	} else {
		err := m.onUI(ctx, func() error {
			if m.view == nil {
				return nil
			}
			return m.view.ExitFullscreen()
		})
		if err != nil {
			m.logger.Warn("exit fullscreen failed", zap.Error(err))
		}
	}

	m.releaseWakeLock()
	m.setState(StateIdle)
	return ctx.Err()
}
